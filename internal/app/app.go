// Package app assembles the HTTP application from its services.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/services"
)

// Deps are the services the application serves.
type Deps struct {
	Logger         *zap.Logger
	AuthService    *services.AuthService
	ProductService *services.ProductService
	OrderService   *services.OrderService
	// Checks are reported by /health. A failing check marks the service unhealthy.
	Checks map[string]func(ctx context.Context) error
}

// New creates the Fiber application with middleware and every route registered.
func New(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: errorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.New().String() },
	}))
	app.Use(logger.FiberMiddleware(deps.Logger))
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", healthHandler(deps.Checks))

	authRequired := middleware.AuthRequired(deps.AuthService)

	handlers.NewAuthHandler(deps.AuthService).RegisterRoutes(app, authRequired)

	handlers.NewProductHandler(deps.ProductService).RegisterRoutes(app, authRequired)
	handlers.NewOrderHandler(deps.OrderService).RegisterRoutes(app, authRequired)

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}
	return c.Status(code).JSON(fiber.Map{
		"message": message,
	})
}

func healthHandler(checks map[string]func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		body := fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = fiber.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		return c.Status(status).JSON(body)
	}
}
