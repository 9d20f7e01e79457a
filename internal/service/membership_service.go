package service

import (
	"context"
	"fmt"

	"github.com/mansoorceksport/memberships/internal/domain"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "membership-service"

// CreateMembershipResult is a newly created membership with its generated periods
type CreateMembershipResult struct {
	Membership *domain.Membership         `json:"membership"`
	Periods    []*domain.MembershipPeriod `json:"membershipPeriods"`
}

// MembershipService orchestrates validation, billing calculations and persistence
type MembershipService struct {
	memberships domain.MembershipRepository
	periods     domain.MembershipPeriodRepository
	tx          domain.Transactor
	clock       domain.Clock
	ids         domain.IDGenerator
	userID      int64

	tracer  trace.Tracer
	created metric.Int64Counter
}

// NewMembershipService creates a new MembershipService.
// userID is the owner assigned to every membership created through this service.
func NewMembershipService(
	memberships domain.MembershipRepository,
	periods domain.MembershipPeriodRepository,
	tx domain.Transactor,
	clock domain.Clock,
	ids domain.IDGenerator,
	userID int64,
) *MembershipService {
	if tx == nil {
		tx = domain.NoopTransactor{}
	}

	created, err := otel.Meter(instrumentationName).Int64Counter(
		"memberships.created",
		metric.WithDescription("Number of memberships created"),
	)
	if err != nil {
		logrus.WithError(err).Warn("[MembershipService] failed to create counter")
	}

	return &MembershipService{
		memberships: memberships,
		periods:     periods,
		tx:          tx,
		clock:       clock,
		ids:         ids,
		userID:      userID,
		tracer:      otel.Tracer(instrumentationName),
		created:     created,
	}
}

// Create validates the request, derives the validity window and state, and stores the
// membership together with its billing periods.
// Rule violations are returned as *domain.ValidationError without touching storage.
func (s *MembershipService) Create(ctx context.Context, input domain.CreateMembershipInput) (*CreateMembershipResult, error) {
	ctx, span := s.tracer.Start(ctx, "MembershipService.Create")
	defer span.End()

	// One clock reading per request keeps the default validFrom and the state consistent
	now := s.clock.Now()

	creation, verr := domain.ValidateMembershipCreation(input, domain.FixedClock(now))
	if verr != nil {
		span.SetAttributes(attribute.String("membership.rejection", string(verr.Code)))
		logrus.WithField("code", verr.Code).Debug("[MembershipService] request rejected")
		return nil, verr
	}

	validUntil := domain.CalculateValidUntil(creation.ValidFrom, creation.BillingPeriods, creation.BillingInterval)
	membership := &domain.Membership{
		UUID:            s.ids.NewID(),
		Name:            creation.Name,
		UserID:          s.userID,
		PaymentMethod:   creation.PaymentMethod,
		RecurringPrice:  creation.RecurringPrice,
		BillingInterval: creation.BillingInterval,
		BillingPeriods:  creation.BillingPeriods,
		ValidFrom:       creation.ValidFrom,
		ValidUntil:      validUntil,
		State:           domain.ClassifyState(creation.ValidFrom, validUntil, now),
		CreatedAt:       now,
	}

	var periods []*domain.MembershipPeriod
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.memberships.Create(ctx, membership); err != nil {
			return err
		}
		periods = domain.GeneratePeriods(creation.ValidFrom, creation.BillingPeriods, creation.BillingInterval, membership.ID, s.ids)
		return s.periods.CreateMany(ctx, periods)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("membership.id", membership.ID),
		attribute.String("membership.state", string(membership.State)),
		attribute.Int("membership.periods", len(periods)),
	)
	if s.created != nil {
		s.created.Add(ctx, 1, metric.WithAttributes(
			attribute.String("billing_interval", string(membership.BillingInterval)),
		))
	}
	logrus.WithFields(logrus.Fields{
		"membership_id": membership.ID,
		"uuid":          membership.UUID,
		"state":         membership.State,
		"periods":       len(periods),
	}).Info("[MembershipService] membership created")

	return &CreateMembershipResult{
		Membership: membership,
		Periods:    periods,
	}, nil
}

// List returns every membership in storage order, each paired with its periods
func (s *MembershipService) List(ctx context.Context) ([]*domain.MembershipWithPeriods, error) {
	ctx, span := s.tracer.Start(ctx, "MembershipService.List")
	defer span.End()

	memberships, err := s.memberships.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	rows := make([]*domain.MembershipWithPeriods, 0, len(memberships))
	for _, m := range memberships {
		periods, err := s.periods.ListByMembership(ctx, m.ID)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to list periods of membership %d: %w", m.ID, err)
		}
		rows = append(rows, &domain.MembershipWithPeriods{
			Membership: m,
			Periods:    periods,
		})
	}

	span.SetAttributes(attribute.Int("membership.count", len(rows)))
	return rows, nil
}
