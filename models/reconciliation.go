package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationDiscrepancy records one unmatched statement line and the
// engine's best guess at why it failed to match. Discrepancies are normal,
// persisted outcomes for a human operator, never errors.
type ReconciliationDiscrepancy struct {
	ID            string          `gorm:"primary_key;size:36" json:"id"`
	Type          DiscrepancyType `gorm:"size:30;not null" json:"type"`
	BankLineID    string          `gorm:"size:36;not null" json:"bank_line_id"`
	TransactionID string          `gorm:"size:36" json:"transaction_id"`
	Expected      decimal.Decimal `gorm:"type:decimal(24,6)" json:"expected"`
	Actual        decimal.Decimal `gorm:"type:decimal(24,6)" json:"actual"`
	Difference    decimal.Decimal `gorm:"type:decimal(24,6)" json:"difference"`
	Description   string          `gorm:"size:255" json:"description"`
	DetectedAt    time.Time       `gorm:"not null" json:"detected_at"`
}

// ReconciliationRecord is the outcome of one reconciliation run against a
// bank account. It starts in_progress and is finalized explicitly by the
// caller; a run with unmatched lines is a normal outcome.
type ReconciliationRecord struct {
	ID                    string                      `gorm:"primary_key;size:36" json:"id"`
	BankAccountID         string                      `gorm:"index;size:36;not null" json:"bank_account_id"`
	StatementDate         time.Time                   `gorm:"not null" json:"statement_date"`
	OpeningBalance        decimal.Decimal             `gorm:"type:decimal(24,6)" json:"opening_balance"`
	ClosingBalance        decimal.Decimal             `gorm:"type:decimal(24,6)" json:"closing_balance"`
	Lines                 []BankLine                  `gorm:"serializer:json" json:"lines"`
	MatchedTransactionIDs []string                    `gorm:"serializer:json" json:"matched_transaction_ids"`
	UnmatchedLineIDs      []string                    `gorm:"serializer:json" json:"unmatched_line_ids"`
	Discrepancies         []ReconciliationDiscrepancy `gorm:"serializer:json" json:"discrepancies"`
	Status                ReconciliationStatus        `gorm:"index;size:15;not null" json:"status"`
	StartedAt             time.Time                   `gorm:"not null" json:"started_at"`
	CompletedAt           *time.Time                  `json:"completed_at"`
}
