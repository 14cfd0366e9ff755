package ledger

import "errors"

// Structural failures abort the call. Reconciliation discrepancies and
// pending/disputed transaction states are recorded outcomes, not errors.
var (
	ErrCurrencyNotFound     = errors.New("currency not found")
	ErrDuplicateCurrency    = errors.New("currency already registered")
	ErrExchangeRateNotFound = errors.New("exchange rate not found")
	ErrAccountNotFound      = errors.New("account not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrInvalidHierarchy     = errors.New("invalid account hierarchy")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvalidAmount        = errors.New("invalid amount")
)
