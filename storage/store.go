// Package storage defines the pluggable persistence boundary of the ledger
// core. The services treat whatever implements Store as authoritative; the
// in-memory implementation is the reference, the gorm implementation backs
// it with MySQL.
package storage

import (
	"github.com/binaamarket/ledger_backend/models"
)

type CurrencyStore interface {
	PutCurrency(c models.Currency) error
	GetCurrency(code string) (*models.Currency, bool, error)
	// ListCurrencies returns all currencies ordered by code.
	ListCurrencies() ([]models.Currency, error)
}

type RateStore interface {
	// AppendRates appends entries to their pair histories in one atomic
	// step, trimming each history to limit entries (oldest dropped first).
	// A rate update and its reciprocal always land together.
	AppendRates(limit int, rates ...models.ExchangeRate) error
	// ListRates returns the (from, to) history ordered oldest first.
	ListRates(from, to string) ([]models.ExchangeRate, error)
}

type AccountStore interface {
	PutAccount(a models.Account) error
	GetAccount(id string) (*models.Account, bool, error)
	GetAccountByCode(code string) (*models.Account, bool, error)
	// ListAccounts returns matching accounts ordered by code.
	ListAccounts(filter models.AccountFilter) ([]models.Account, error)
}

type TransactionStore interface {
	PutTransaction(t models.Transaction) error
	GetTransaction(id string) (*models.Transaction, bool, error)
	// ListTransactions returns matching transactions in insertion order.
	ListTransactions(filter models.TransactionFilter) ([]models.Transaction, error)
}

type BankStore interface {
	PutBankAccount(b models.BankAccount) error
	GetBankAccount(id string) (*models.BankAccount, bool, error)
	PutReconciliation(r models.ReconciliationRecord) error
	GetReconciliation(id string) (*models.ReconciliationRecord, bool, error)
}

// Store is the full persistence surface the ledger services are built on.
type Store interface {
	CurrencyStore
	RateStore
	AccountStore
	TransactionStore
	BankStore
}
