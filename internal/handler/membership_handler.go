package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/memberships/internal/domain"
	"github.com/mansoorceksport/memberships/internal/service"
	"github.com/mansoorceksport/memberships/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// messageInvalidRequestBody is returned when the POST body is not a JSON object
const messageInvalidRequestBody = "invalidRequestBody"

// MembershipService is the part of the service layer the handler needs
type MembershipService interface {
	Create(ctx context.Context, input domain.CreateMembershipInput) (*service.CreateMembershipResult, error)
	List(ctx context.Context) ([]*domain.MembershipWithPeriods, error)
}

// MembershipHandler handles the /memberships endpoints
type MembershipHandler struct {
	service MembershipService
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(service MembershipService) *MembershipHandler {
	return &MembershipHandler{service: service}
}

// CreateMembership handles POST /memberships
func (h *MembershipHandler) CreateMembership(c *fiber.Ctx) error {
	var req domain.CreateMembershipInput
	// An empty body counts as an empty object so it reaches the mandatory field check
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": messageInvalidRequestBody,
			})
		}
	}

	result, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			telemetry.AddSpanEvent(c, "membership.rejected", attribute.String("code", string(verr.Code)))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": verr.Message(),
			})
		}
		return err
	}

	telemetry.SetSpanAttribute(c, "membership.id", strconv.FormatInt(result.Membership.ID, 10))
	return c.Status(fiber.StatusCreated).JSON(result)
}

// ListMemberships handles GET /memberships
func (h *MembershipHandler) ListMemberships(c *fiber.Ctx) error {
	rows, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(rows)
}
