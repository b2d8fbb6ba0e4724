package handlers

import (
	"errors"

	"finbox/internal/dto"
	"finbox/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const noUsersMessage = "No users found in the database. Please create a user first."

type SeedHandler struct {
	seedService *service.SeedService
	logger      *zap.Logger
}

func NewSeedHandler(seedService *service.SeedService, logger *zap.Logger) *SeedHandler {
	return &SeedHandler{
		seedService: seedService,
		logger:      logger,
	}
}

// Seed godoc
// @Summary Seed sample transactions
// @Description Fill the first user's default account with 90 days of random transactions. Not available in production.
// @Tags dev
// @Produce json
// @Success 200 {object} dto.SeedResponse
// @Failure 500 {object} dto.SeedResponse
// @Router /api/seed [get]
func (h *SeedHandler) Seed(c *fiber.Ctx) error {
	result, err := h.seedService.SeedTransactions(c.Context())
	if err != nil {
		message := err.Error()
		if errors.Is(err, service.ErrNoUsers) {
			message = noUsersMessage
		} else {
			h.logger.Error("Seeding failed", zap.Error(err))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.SeedResponse{
			Success: false,
			Error:   message,
		})
	}

	return c.JSON(dto.SeedResponse{
		Success: true,
		Message: result.Message(),
	})
}
