package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IncomeStatement sums confirmed revenue and expense transactions over a
// date range, converted into DisplayCurrency at the rate current when the
// report runs (frozen base amounts, live display conversion).
type IncomeStatement struct {
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	DisplayCurrency string          `json:"display_currency"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	NetIncome       decimal.Decimal `json:"net_income"`
	// GrossProfitEstimate is a proportional estimate, not a costed figure;
	// cost of goods sold is not modeled separately.
	GrossProfitEstimate decimal.Decimal            `json:"gross_profit_estimate"`
	RevenueByCategory   map[string]decimal.Decimal `json:"revenue_by_category"`
	ExpensesByCategory  map[string]decimal.Decimal `json:"expenses_by_category"`
	TransactionCount    int                        `json:"transaction_count"`
	GeneratedAt         time.Time                  `json:"generated_at"`
}

type BalanceSheetLine struct {
	AccountID   string          `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Balance     decimal.Decimal `json:"balance"`
}

type BalanceSheetSection struct {
	Lines []BalanceSheetLine `json:"lines"`
	Total decimal.Decimal    `json:"total"`
}

// BalanceSheet is always a current snapshot of account balances; AsOf is
// advisory metadata echoed back to the caller, not a historical query.
type BalanceSheet struct {
	AsOf            time.Time           `json:"as_of"`
	DisplayCurrency string              `json:"display_currency"`
	Assets          BalanceSheetSection `json:"assets"`
	Liabilities     BalanceSheetSection `json:"liabilities"`
	Equity          BalanceSheetSection `json:"equity"`
	GeneratedAt     time.Time           `json:"generated_at"`
}

// VATReturn sums captured tax over confirmed transactions in range.
// Output tax comes from revenue transactions, input tax from expenses.
type VATReturn struct {
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	DisplayCurrency string          `json:"display_currency"`
	OutputVAT       decimal.Decimal `json:"output_vat"`
	InputVAT        decimal.Decimal `json:"input_vat"`
	NetVAT          decimal.Decimal `json:"net_vat"`
	GeneratedAt     time.Time       `json:"generated_at"`
}
