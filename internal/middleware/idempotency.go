package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// HeaderCorrelationID identifies a client retry of the same request
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderIdempotentReplay marks a response served from the idempotency cache
	HeaderIdempotentReplay = "X-Idempotent-Replay"

	idempotencyKeyPrefix = "idempotency:memberships:"
	storeTimeout         = 2 * time.Second
)

type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyMiddleware replays the stored response of a mutating request whose
// X-Correlation-ID was already answered within ttl.
// Only 2xx responses are stored, so a rejected request can be retried with the same ID.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get(HeaderCorrelationID)
		if correlationID == "" {
			return c.Next()
		}

		key := idempotencyKeyPrefix + correlationID
		ctx := c.UserContext()

		if raw, err := redisClient.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
			var cached cachedResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				c.Set(HeaderIdempotentReplay, "true")
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.Status(cached.Status).Send(cached.Body)
			}
			logrus.WithField("key", key).Warn("[Idempotency] discarding unreadable cached response")
		} else if err != nil && err != redis.Nil {
			// Redis outage degrades to plain processing
			logrus.WithError(err).Warn("[Idempotency] cache lookup failed")
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			return nil
		}
		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}

		payload, err := json.Marshal(cachedResponse{Status: status, Body: body})
		if err != nil {
			return nil
		}
		// Stored before responding so an immediate retry sees it
		storeCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := redisClient.Set(storeCtx, key, payload, ttl).Err(); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("[Idempotency] failed to store response")
		}
		return nil
	}
}
