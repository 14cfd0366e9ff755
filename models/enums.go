package models

import (
	"database/sql/driver"
	"fmt"
)

// enumValue normalizes the raw value gorm hands back for string enums.
func enumValue(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported enum source type %T", value)
	}
}

type AccountType string

const (
	AccountTypeAsset     AccountType = "Asset"
	AccountTypeLiability AccountType = "Liability"
	AccountTypeEquity    AccountType = "Equity"
	AccountTypeRevenue   AccountType = "Revenue"
	AccountTypeExpense   AccountType = "Expense"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

func (t AccountType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *AccountType) Scan(value interface{}) error {
	s, err := enumValue(value)
	if err != nil {
		return err
	}
	*t = AccountType(s)
	return nil
}

type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusConfirmed  TransactionStatus = "confirmed"
	TransactionStatusReconciled TransactionStatus = "reconciled"
	TransactionStatusDisputed   TransactionStatus = "disputed"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusConfirmed,
		TransactionStatusReconciled, TransactionStatusDisputed:
		return true
	}
	return false
}

// CanTransitionTo enforces the forward-only lifecycle:
// pending -> confirmed -> reconciled, and any live status -> disputed.
// Disputed is terminal.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s == next {
		return false
	}
	switch next {
	case TransactionStatusConfirmed:
		return s == TransactionStatusPending
	case TransactionStatusReconciled:
		return s == TransactionStatusConfirmed
	case TransactionStatusDisputed:
		return s != TransactionStatusDisputed
	}
	return false
}

func (s TransactionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *TransactionStatus) Scan(value interface{}) error {
	v, err := enumValue(value)
	if err != nil {
		return err
	}
	*s = TransactionStatus(v)
	return nil
}

type RateSource string

const (
	RateSourceBank   RateSource = "bank"
	RateSourceAPI    RateSource = "api"
	RateSourceManual RateSource = "manual"
)

func (r RateSource) Valid() bool {
	switch r {
	case RateSourceBank, RateSourceAPI, RateSourceManual:
		return true
	}
	return false
}

func (r RateSource) Value() (driver.Value, error) {
	return string(r), nil
}

func (r *RateSource) Scan(value interface{}) error {
	v, err := enumValue(value)
	if err != nil {
		return err
	}
	*r = RateSource(v)
	return nil
}

type ReconciliationStatus string

const (
	ReconciliationStatusPending    ReconciliationStatus = "pending"
	ReconciliationStatusInProgress ReconciliationStatus = "in_progress"
	ReconciliationStatusCompleted  ReconciliationStatus = "completed"
	ReconciliationStatusDisputed   ReconciliationStatus = "disputed"
)

func (s ReconciliationStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *ReconciliationStatus) Scan(value interface{}) error {
	v, err := enumValue(value)
	if err != nil {
		return err
	}
	*s = ReconciliationStatus(v)
	return nil
}

type DiscrepancyType string

const (
	DiscrepancyMissingTransaction DiscrepancyType = "missing_transaction"
	DiscrepancyAmountMismatch     DiscrepancyType = "amount_mismatch"
	DiscrepancyDateMismatch       DiscrepancyType = "date_mismatch"
	DiscrepancyDuplicate          DiscrepancyType = "duplicate"
)

func (d DiscrepancyType) Value() (driver.Value, error) {
	return string(d), nil
}

func (d *DiscrepancyType) Scan(value interface{}) error {
	v, err := enumValue(value)
	if err != nil {
		return err
	}
	*d = DiscrepancyType(v)
	return nil
}

type BankLineDirection string

const (
	BankLineDebit  BankLineDirection = "debit"
	BankLineCredit BankLineDirection = "credit"
)

func (d BankLineDirection) Valid() bool {
	return d == BankLineDebit || d == BankLineCredit
}

func (d BankLineDirection) Value() (driver.Value, error) {
	return string(d), nil
}

func (d *BankLineDirection) Scan(value interface{}) error {
	v, err := enumValue(value)
	if err != nil {
		return err
	}
	*d = BankLineDirection(v)
	return nil
}
