package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount identifies an external bank account that ledger transactions
// can be tagged to and reconciled against.
type BankAccount struct {
	ID               string          `gorm:"primary_key;size:36" json:"id"`
	BankName         string          `gorm:"size:100;not null" json:"bank_name"`
	AccountNumber    string          `gorm:"size:34" json:"account_number"`
	IBAN             string          `gorm:"size:34" json:"iban"`
	SwiftCode        string          `gorm:"size:11" json:"swift_code"`
	CurrencyCode     string          `gorm:"size:3;not null" json:"currency_code"`
	Balance          decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0" json:"balance"`
	AvailableBalance decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0" json:"available_balance"`
	AccountType      string          `gorm:"size:20" json:"account_type"`
	IsActive         *bool           `gorm:"not null;default:true" json:"is_active"`
	LastReconciledAt *time.Time      `json:"last_reconciled_at"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBankAccount struct {
	BankName         string          `json:"bank_name" binding:"required"`
	AccountNumber    string          `json:"account_number"`
	IBAN             string          `json:"iban"`
	SwiftCode        string          `json:"swift_code"`
	CurrencyCode     string          `json:"currency_code" binding:"required"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	AccountType      string          `json:"account_type"`
}

// BankLine is one bank statement line inside a reconciliation run.
// MatchedTransactionID holds at most one ledger transaction id.
type BankLine struct {
	ID                   string            `gorm:"primary_key;size:36" json:"id"`
	ReconciliationID     string            `gorm:"index;size:36;not null" json:"reconciliation_id"`
	BankAccountID        string            `gorm:"index;size:36;not null" json:"bank_account_id"`
	Date                 time.Time         `gorm:"not null" json:"date"`
	Amount               decimal.Decimal   `gorm:"type:decimal(24,6);not null" json:"amount"`
	CurrencyCode         string            `gorm:"size:3;not null" json:"currency_code"`
	Direction            BankLineDirection `gorm:"size:6;not null" json:"direction"`
	Description          string            `gorm:"size:255" json:"description"`
	Reference            string            `gorm:"size:100" json:"reference"`
	Reconciled           bool              `gorm:"not null;default:false" json:"reconciled"`
	MatchedTransactionID string            `gorm:"size:36" json:"matched_transaction_id"`
}

// StatementLine is the caller-supplied form of a bank statement line.
type StatementLine struct {
	Date         time.Time         `json:"date" binding:"required"`
	Amount       decimal.Decimal   `json:"amount" binding:"required"`
	CurrencyCode string            `json:"currency_code" binding:"required"`
	Direction    BankLineDirection `json:"direction" binding:"required"`
	Description  string            `json:"description"`
	Reference    string            `json:"reference"`
}

// SignedAmount is the balance effect of the line: credits add, debits subtract.
func (l StatementLine) SignedAmount() decimal.Decimal {
	if l.Direction == BankLineDebit {
		return l.Amount.Abs().Neg()
	}
	return l.Amount.Abs()
}
