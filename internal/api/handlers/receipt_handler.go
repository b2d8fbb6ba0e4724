package handlers

import (
	"fmt"
	"io"

	"finbox/internal/dto"
	"finbox/internal/models"
	"finbox/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const receiptField = "receipt"

type ReceiptHandler struct {
	receiptService *service.ReceiptService
	tokenService   *service.TokenService
	logger         *zap.Logger
}

func NewReceiptHandler(receiptService *service.ReceiptService, tokenService *service.TokenService, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
		tokenService:   tokenService,
		logger:         logger,
	}
}

// ScanDesktop godoc
// @Summary Scan a receipt from the desktop companion
// @Description Extract a transaction draft from a receipt image or PDF
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param receipt formData file true "Receipt image or PDF (max 5 MB)"
// @Success 200 {object} dto.ScanReceiptResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/receipt-scanner [post]
func (h *ReceiptHandler) ScanDesktop(c *fiber.Ctx) error {
	user, err := h.tokenService.Verify(c.Context(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	h.logger.Debug("Desktop receipt scan", zap.String("user_id", user.ID.String()))
	return h.scan(c)
}

// ScanSession godoc
// @Summary Scan a receipt from the web app
// @Description Extract a transaction draft from a receipt image or PDF
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Security SessionAuth
// @Param receipt formData file true "Receipt image or PDF (max 5 MB)"
// @Success 200 {object} dto.ScanReceiptResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/transactions/scan-receipt [post]
func (h *ReceiptHandler) ScanSession(c *fiber.Ctx) error {
	return h.scan(c)
}

func (h *ReceiptHandler) scan(c *fiber.Ctx) error {
	upload, err := h.readUpload(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	draft, err := h.receiptService.Scan(c.Context(), upload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dto.ScanReceiptResponse{
		Success: true,
		Data:    draftResponse(draft),
	})
}

func (h *ReceiptHandler) readUpload(c *fiber.Ctx) (*service.ReceiptUpload, error) {
	fileHeader, err := c.FormFile(receiptField)
	if err != nil {
		return nil, service.ErrMissingFile
	}

	maxBytes := h.receiptService.MaxBytes()
	if fileHeader.Size > maxBytes {
		return nil, fmt.Errorf("%w: maximum size is %d bytes", service.ErrFileTooLarge, maxBytes)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	return &service.ReceiptUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

func draftResponse(draft *models.TransactionDraft) dto.TransactionDraftResponse {
	return dto.TransactionDraftResponse{
		Amount:       draft.Amount,
		Date:         draft.Date.Format("2006-01-02"),
		Description:  draft.Description,
		MerchantName: draft.MerchantName,
		Category:     string(draft.Category),
	}
}
