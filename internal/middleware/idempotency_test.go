package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIdempotentApp(t *testing.T) (*fiber.App, *miniredis.Miniredis, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	app := fiber.New()
	app.Use(IdempotencyMiddleware(client, time.Hour))
	app.Post("/items", func(c *fiber.Ctx) error {
		calls++
		if c.Query("fail") != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "nope"})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": calls})
	})
	app.Get("/items", func(c *fiber.Ctx) error {
		calls++
		return c.JSON(fiber.Map{"call": calls})
	})
	return app, mr, &calls
}

func send(t *testing.T, app *fiber.App, method, path, correlationID string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if correlationID != "" {
		req.Header.Set(HeaderCorrelationID, correlationID)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	app, mr, calls := setupIdempotentApp(t)

	first, firstBody := send(t, app, http.MethodPost, "/items", "abc-123")
	assert.Equal(t, fiber.StatusCreated, first.StatusCode)
	assert.Empty(t, first.Header.Get(HeaderIdempotentReplay))

	second, secondBody := send(t, app, http.MethodPost, "/items", "abc-123")
	assert.Equal(t, fiber.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get(HeaderIdempotentReplay))
	assert.JSONEq(t, firstBody, secondBody)
	assert.Equal(t, 1, *calls)

	assert.True(t, mr.Exists("idempotency:memberships:abc-123"))
	assert.Equal(t, time.Hour, mr.TTL("idempotency:memberships:abc-123"))
}

func TestIdempotency_DifferentIDsAreIndependent(t *testing.T) {
	app, _, calls := setupIdempotentApp(t)

	send(t, app, http.MethodPost, "/items", "one")
	send(t, app, http.MethodPost, "/items", "two")
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_SkipsRequestsWithoutID(t *testing.T) {
	app, mr, calls := setupIdempotentApp(t)

	send(t, app, http.MethodPost, "/items", "")
	send(t, app, http.MethodPost, "/items", "")
	assert.Equal(t, 2, *calls)
	assert.Empty(t, mr.Keys())
}

func TestIdempotency_DoesNotStoreFailures(t *testing.T) {
	app, mr, calls := setupIdempotentApp(t)

	resp, _ := send(t, app, http.MethodPost, "/items?fail=1", "retry-me")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, mr.Exists("idempotency:memberships:retry-me"))

	resp, _ = send(t, app, http.MethodPost, "/items?fail=1", "retry-me")
	assert.Empty(t, resp.Header.Get(HeaderIdempotentReplay))
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_IgnoresReads(t *testing.T) {
	app, mr, calls := setupIdempotentApp(t)

	send(t, app, http.MethodGet, "/items", "read-1")
	send(t, app, http.MethodGet, "/items", "read-1")
	assert.Equal(t, 2, *calls)
	assert.Empty(t, mr.Keys())
}

func TestIdempotency_RedisDownFallsThrough(t *testing.T) {
	app, mr, calls := setupIdempotentApp(t)
	mr.Close()

	resp, _ := send(t, app, http.MethodPost, "/items", "offline")
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, *calls)
}
