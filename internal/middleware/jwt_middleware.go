package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"storefront/internal/logger"
	"storefront/internal/services"
)

type identityKey struct{}

// TokenValidator resolves a bearer token to the caller's identity.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*services.Identity, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token. The caller's
// identity is stored in the request's user context.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		ctx := c.UserContext()
		identity, err := validator.ValidateToken(ctx, parts[1])
		if err != nil {
			if !errors.Is(err, services.ErrInvalidToken) {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": "Failed to validate token",
					"error":   err.Error(),
				})
			}
			logger.FromContext(ctx).Info("JWT validation failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		ctx = WithIdentity(ctx, *identity)
		c.SetUserContext(logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("user_id", identity.UserID))))
		return c.Next()
	}
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity services.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored in ctx by AuthRequired.
func IdentityFromContext(ctx context.Context) (services.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(services.Identity)
	return identity, ok
}

// CurrentIdentity returns the authenticated caller of the request.
func CurrentIdentity(c *fiber.Ctx) (services.Identity, bool) {
	return IdentityFromContext(c.UserContext())
}
