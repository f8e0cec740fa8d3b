package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrOwnerRequired), errors.Is(err, services.ErrEmptyCart):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken), errors.Is(err, repositories.ErrDuplicate):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status its kind maps to.
func respondError(c *fiber.Ctx, err error, message string) error {
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		logger.FromContext(c.UserContext()).Error(message, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// callerID returns the authenticated user's id, or "" outside AuthRequired.
func callerID(c *fiber.Ctx) string {
	identity, _ := middleware.CurrentIdentity(c)
	return identity.UserID
}
