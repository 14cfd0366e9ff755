package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single ledger event. BaseAmount and CapturedRate are
// frozen at creation time: later rate updates must never change the stored
// base-currency value of an existing transaction. Corrections are new
// (reversing) transactions, never edits or deletes.
type Transaction struct {
	ID            string            `gorm:"primary_key;size:36" json:"id"`
	Type          AccountType       `gorm:"index;size:10;not null" json:"type"`
	Category      string            `gorm:"index;size:50" json:"category"`
	Subcategory   string            `gorm:"size:50" json:"subcategory"`
	Amount        decimal.Decimal   `gorm:"type:decimal(24,6);not null" json:"amount"`
	CurrencyCode  string            `gorm:"size:3;not null" json:"currency_code"`
	BaseAmount    decimal.Decimal   `gorm:"type:decimal(24,6);not null" json:"base_amount"`
	CapturedRate  decimal.Decimal   `gorm:"type:decimal(24,10);not null" json:"captured_rate"`
	Date          time.Time         `gorm:"index;not null" json:"date"`
	AccountID     string            `gorm:"index;size:36;not null" json:"account_id"`
	BankAccountID string            `gorm:"index;size:36" json:"bank_account_id"`
	TaxRate       decimal.Decimal   `gorm:"type:decimal(8,6)" json:"tax_rate"`
	TaxAmount     decimal.Decimal   `gorm:"type:decimal(24,6)" json:"tax_amount"`
	TaxInclusive  bool              `json:"tax_inclusive"`
	Status        TransactionStatus `gorm:"index;size:10;not null" json:"status"`
	Description   string            `gorm:"size:255" json:"description"`
	Tags          []string          `gorm:"serializer:json" json:"tags"`
	Metadata      map[string]string `gorm:"serializer:json" json:"metadata"`
	OrderID       string            `gorm:"size:36" json:"order_id"`
	InvoiceID     string            `gorm:"size:36" json:"invoice_id"`
	CustomerID    string            `gorm:"size:36" json:"customer_id"`
	SupplierID    string            `gorm:"size:36" json:"supplier_id"`
	// MatchedLineID points at the bank statement line this transaction was
	// reconciled against. At most one line per transaction.
	MatchedLineID string    `gorm:"size:36" json:"matched_line_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTransaction struct {
	Type          AccountType       `json:"type" binding:"required"`
	Category      string            `json:"category"`
	Subcategory   string            `json:"subcategory"`
	Amount        decimal.Decimal   `json:"amount" binding:"required"`
	CurrencyCode  string            `json:"currency_code" binding:"required"`
	Date          time.Time         `json:"date" binding:"required"`
	AccountID     string            `json:"account_id" binding:"required"`
	BankAccountID string            `json:"bank_account_id"`
	TaxRate       decimal.Decimal   `json:"tax_rate"`
	TaxInclusive  bool              `json:"tax_inclusive"`
	Description   string            `json:"description"`
	Tags          []string          `json:"tags"`
	Metadata      map[string]string `json:"metadata"`
	OrderID       string            `json:"order_id"`
	InvoiceID     string            `json:"invoice_id"`
	CustomerID    string            `json:"customer_id"`
	SupplierID    string            `json:"supplier_id"`
}

// TransactionFilter narrows ListTransactions. Nil fields match everything.
type TransactionFilter struct {
	Type          *AccountType
	Status        *TransactionStatus
	BankAccountID string
	AccountID     string
	Start         *time.Time
	End           *time.Time
}

func (f TransactionFilter) Matches(t Transaction) bool {
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.BankAccountID != "" && t.BankAccountID != f.BankAccountID {
		return false
	}
	if f.AccountID != "" && t.AccountID != f.AccountID {
		return false
	}
	if f.Start != nil && t.Date.Before(*f.Start) {
		return false
	}
	if f.End != nil && t.Date.After(*f.End) {
		return false
	}
	return true
}
