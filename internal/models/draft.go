package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory is a category id as used by the transaction form.
type ExpenseCategory string

const (
	CategoryHousing        ExpenseCategory = "housing"
	CategoryTransportation ExpenseCategory = "transportation"
	CategoryGroceries      ExpenseCategory = "groceries"
	CategoryUtilities      ExpenseCategory = "utilities"
	CategoryEntertainment  ExpenseCategory = "entertainment"
	CategoryFood           ExpenseCategory = "food"
	CategoryShopping       ExpenseCategory = "shopping"
	CategoryHealthcare     ExpenseCategory = "healthcare"
	CategoryEducation      ExpenseCategory = "education"
	CategoryPersonal       ExpenseCategory = "personal"
	CategoryTravel         ExpenseCategory = "travel"
	CategoryInsurance      ExpenseCategory = "insurance"
	CategoryGifts          ExpenseCategory = "gifts"
	CategoryBills          ExpenseCategory = "bills"
	CategoryOtherExpense   ExpenseCategory = "other-expense"
)

var ExpenseCategories = []ExpenseCategory{
	CategoryHousing,
	CategoryTransportation,
	CategoryGroceries,
	CategoryUtilities,
	CategoryEntertainment,
	CategoryFood,
	CategoryShopping,
	CategoryHealthcare,
	CategoryEducation,
	CategoryPersonal,
	CategoryTravel,
	CategoryInsurance,
	CategoryGifts,
	CategoryBills,
	CategoryOtherExpense,
}

// NormalizeCategory maps free text onto a known expense category.
func NormalizeCategory(raw string) ExpenseCategory {
	candidate := ExpenseCategory(strings.ToLower(strings.TrimSpace(raw)))
	for _, c := range ExpenseCategories {
		if c == candidate {
			return c
		}
	}
	return CategoryOtherExpense
}

// TransactionDraft is what receipt extraction produces. It is never persisted
// here; the caller uses it to pre-fill the transaction form.
type TransactionDraft struct {
	Amount       decimal.Decimal
	Date         time.Time
	Description  string
	MerchantName string
	Category     ExpenseCategory
}
