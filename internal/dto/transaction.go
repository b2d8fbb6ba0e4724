package dto

import "github.com/shopspring/decimal"

// TransactionDraftResponse pre-fills the transaction form. Amount is a JSON
// string so no precision is lost on the way to the browser.
type TransactionDraftResponse struct {
	Amount       decimal.Decimal `json:"amount" swaggertype:"string" example:"42.50"`
	Date         string          `json:"date" example:"2025-03-14"`
	Description  string          `json:"description" example:"Weekly groceries"`
	MerchantName string          `json:"merchantName" example:"Corner Market"`
	Category     string          `json:"category" example:"groceries"`
}

type ScanReceiptResponse struct {
	Success bool                     `json:"success"`
	Data    TransactionDraftResponse `json:"data"`
}

type SeedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
