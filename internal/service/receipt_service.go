package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"finbox/internal/llm"
	"finbox/internal/models"

	"github.com/gen2brain/go-fitz"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultMaxReceiptBytes is the upload limit when none is configured.
const DefaultMaxReceiptBytes = 5 << 20

var receiptPrompt = `Analyze this receipt and extract the following information in JSON format:
- Total amount (just the number)
- Date (in ISO format)
- Description or items purchased (brief summary)
- Merchant/store name
- Suggested category (one of: ` + categoryList() + `)

Only respond with valid JSON in this exact format:
{
  "amount": number,
  "date": "ISO date string",
  "description": "string",
  "merchantName": "string",
  "category": "string"
}

If it's not a receipt, return an empty object.`

func categoryList() string {
	names := make([]string, 0, len(models.ExpenseCategories))
	for _, c := range models.ExpenseCategories {
		names = append(names, string(c))
	}
	return strings.Join(names, ",")
}

// ReceiptUpload is a receipt as received from the client. It is never stored.
type ReceiptUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReceiptService turns receipt images and PDFs into transaction drafts.
type ReceiptService struct {
	provider llm.Provider
	maxBytes int64
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewReceiptService(provider llm.Provider, maxBytes int64, timeout time.Duration, logger *zap.Logger) *ReceiptService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxReceiptBytes
	}
	return &ReceiptService{
		provider: provider,
		maxBytes: maxBytes,
		timeout:  timeout,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *ReceiptService) MaxBytes() int64 {
	return s.maxBytes
}

// Scan extracts a draft from the upload. Nothing is sent to the provider
// unless the upload passes the size and type checks.
func (s *ReceiptService) Scan(ctx context.Context, upload *ReceiptUpload) (*models.TransactionDraft, error) {
	if upload == nil || len(upload.Data) == 0 {
		return nil, ErrMissingFile
	}
	if int64(len(upload.Data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: maximum size is %d bytes", ErrFileTooLarge, s.maxBytes)
	}

	mimeType, err := detectReceiptType(upload)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var answer string
	if mimeType == "application/pdf" {
		text, err := s.extractPDFText(upload.Data)
		if err != nil {
			return nil, err
		}
		answer, err = s.provider.GenerateText(ctx, receiptPrompt+"\n\nReceipt text:\n"+text)
		if err != nil {
			return nil, providerError(err)
		}
	} else {
		answer, err = s.provider.DescribeImage(ctx, receiptPrompt, llm.Image{MIMEType: mimeType, Data: upload.Data})
		if err != nil {
			return nil, providerError(err)
		}
	}

	draft, err := s.parseDraft(answer)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Receipt scanned",
		zap.String("type", mimeType),
		zap.Int("size", len(upload.Data)),
		zap.String("category", string(draft.Category)),
	)
	return draft, nil
}

func detectReceiptType(upload *ReceiptUpload) (string, error) {
	declared, _, _ := mime.ParseMediaType(upload.ContentType)
	if isReceiptType(declared) {
		return declared, nil
	}

	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(upload.Data))
	if isReceiptType(sniffed) {
		return sniffed, nil
	}

	return "", fmt.Errorf("%w: unsupported file type %q", ErrValidation, upload.ContentType)
}

func isReceiptType(mediaType string) bool {
	return mediaType == "application/pdf" || strings.HasPrefix(mediaType, "image/")
}

func (s *ReceiptService) extractPDFText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open PDF", ErrValidation)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page", zap.Int("page", i+1), zap.Error(err))
			continue
		}
		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	text := strings.TrimSpace(sanitizeUTF8(textBuilder.String()))
	if text == "" {
		return "", fmt.Errorf("%w: no text found in PDF", ErrNotAReceipt)
	}

	s.logger.Debug("PDF text extracted", zap.Int("pages", doc.NumPage()), zap.Int("text_length", len(text)))
	return text, nil
}

type extractedReceipt struct {
	Amount       *decimal.Decimal `json:"amount"`
	Date         string           `json:"date"`
	Description  string           `json:"description"`
	MerchantName string           `json:"merchantName"`
	Category     string           `json:"category"`
}

func (s *ReceiptService) parseDraft(answer string) (*models.TransactionDraft, error) {
	cleaned := stripCodeFence(answer)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		s.logger.Warn("Receipt response is not JSON", zap.String("response", truncateForLog(answer)))
		return nil, fmt.Errorf("%w: invalid response format from AI", ErrExternalService)
	}
	if len(fields) == 0 {
		return nil, ErrNotAReceipt
	}

	var extracted extractedReceipt
	if err := json.Unmarshal([]byte(cleaned), &extracted); err != nil {
		return nil, fmt.Errorf("%w: invalid receipt fields: %w", ErrExternalService, err)
	}
	if extracted.Amount == nil {
		return nil, fmt.Errorf("%w: receipt amount missing", ErrExternalService)
	}

	return &models.TransactionDraft{
		Amount:       extracted.Amount.Abs().Round(2),
		Date:         parseReceiptDate(extracted.Date, s.now()),
		Description:  strings.TrimSpace(extracted.Description),
		MerchantName: strings.TrimSpace(extracted.MerchantName),
		Category:     models.NormalizeCategory(extracted.Category),
	}, nil
}

var receiptDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
	"01/02/2006",
}

// parseReceiptDate returns the calendar date in value, or today's date when
// the provider gave none or an unreadable one.
func parseReceiptDate(value string, now time.Time) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range receiptDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// providerError classifies a provider failure for the HTTP layer.
func providerError(err error) error {
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return fmt.Errorf("%w: %w", ErrExternalService, err)
}
