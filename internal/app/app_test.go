package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"storefront/internal/services"
)

func decodeBody(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	app := fiber.New()
	app.Get("/health", healthHandler(map[string]func(context.Context) error{
		"database": func(context.Context) error { return nil },
	}))

	status, body := decodeBody(t, app, "/health")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ok", body["database"])
	assert.NotEmpty(t, body["time"])
}

func TestHealth_FailingCheck(t *testing.T) {
	app := fiber.New()
	app.Get("/health", healthHandler(map[string]func(context.Context) error{
		"database": func(context.Context) error { return errors.New("connection refused") },
	}))

	status, body := decodeBody(t, app, "/health")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "connection refused", body["database"])
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("database exploded") })

	status, body := decodeBody(t, app, "/teapot")
	assert.Equal(t, fiber.StatusTeapot, status)
	assert.Equal(t, "short and stout", body["message"])

	status, body = decodeBody(t, app, "/boom")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["message"], "internal errors are not leaked")
}

func TestNew_RecoversPanicsAndSetsRequestID(t *testing.T) {
	app := New(Deps{})
	app.Get("/panic", func(c *fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/panic", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestOrderEventLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := OrderEventLogger(zap.New(core))

	body, err := json.Marshal(services.OrderEvent{
		Type:       services.EventOrderCreated,
		OrderID:    "o1",
		UserID:     "u1",
		TotalPrice: decimal.RequireFromString("15"),
		ProductIDs: []string{"p1", "p2"},
	})
	require.NoError(t, err)

	require.NoError(t, handler(amqp.Delivery{Body: body, RoutingKey: services.EventOrderCreated}))
	entries := logs.FilterMessage("order event received").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "o1", fields["order_id"])
	assert.Equal(t, "15.00", fields["total_price"])

	require.NoError(t, handler(amqp.Delivery{Body: []byte("not json")}))
	assert.Equal(t, 1, logs.FilterMessage("discarding malformed order event").Len())
}
