package handlers

import (
	"time"

	"finbox/internal/dto"
	"finbox/internal/service"
	"finbox/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TokenHandler struct {
	tokenService *service.TokenService
	logger       *zap.Logger
}

func NewTokenHandler(tokenService *service.TokenService, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{
		tokenService: tokenService,
		logger:       logger,
	}
}

// GenerateToken godoc
// @Summary Issue a desktop credential
// @Description Issue a 30-day credential for the desktop receipt scanner
// @Tags token
// @Produce json
// @Security SessionAuth
// @Success 200 {object} dto.GenerateTokenResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/auth/generate-token [get]
func (h *TokenHandler) GenerateToken(c *fiber.Ctx) error {
	issued, err := h.tokenService.Issue(c.Context(), middleware.IdentityID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dto.GenerateTokenResponse{
		Success:   true,
		Token:     issued.Token,
		ExpiresIn: issued.ExpiresIn,
		ExpiresAt: issued.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// ValidateToken godoc
// @Summary Check a desktop credential
// @Tags token
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.TokenStatusResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/receipt-scanner [get]
func (h *TokenHandler) ValidateToken(c *fiber.Ctx) error {
	if _, err := h.tokenService.Verify(c.Context(), c.Get(fiber.HeaderAuthorization)); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dto.TokenStatusResponse{
		Success: true,
		Message: "Token is valid",
	})
}
