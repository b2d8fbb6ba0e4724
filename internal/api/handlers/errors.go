package handlers

import (
	"errors"
	"strings"

	"finbox/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError writes the {error} body and status for err.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status, message := classify(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingCredential):
		return fiber.StatusUnauthorized, "Missing or invalid Authorization header"
	case errors.Is(err, service.ErrInvalidCredential):
		return fiber.StatusUnauthorized, "Invalid token"
	case errors.Is(err, service.ErrUserNotFound):
		return fiber.StatusUnauthorized, "User not found"
	case errors.Is(err, service.ErrUnauthorized):
		return fiber.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, service.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrUserExists):
		return fiber.StatusConflict, "User already exists"
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrMissingFile):
		return fiber.StatusBadRequest, "No receipt file provided"
	case errors.Is(err, service.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge, detail(err, service.ErrValidation)
	case errors.Is(err, service.ErrNotAReceipt):
		return fiber.StatusUnprocessableEntity, "The uploaded file does not look like a receipt"
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusBadRequest, detail(err, service.ErrValidation)
	case errors.Is(err, service.ErrConfiguration):
		return fiber.StatusInternalServerError, detail(err, service.ErrConfiguration) + "."
	case errors.Is(err, service.ErrExternalService):
		return fiber.StatusInternalServerError, detail(err, service.ErrExternalService)
	case errors.Is(err, service.ErrSigning):
		return fiber.StatusInternalServerError, "Failed to generate token"
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

// detail strips the sentinel prefix from a wrapped error message.
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}
