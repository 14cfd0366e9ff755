package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/binaamarket/ledger_backend/models"
	"github.com/binaamarket/ledger_backend/storage"
)

// TransactionLedger records financial events. The base-currency amount and
// the rate used are captured at creation and frozen; rate updates after the
// fact never change a stored transaction. Transactions are never deleted,
// corrections are new reversing transactions.
type TransactionLedger struct {
	mu       sync.Mutex
	store    storage.Store
	registry *CurrencyRegistry
	rates    *ExchangeRateStore
	chart    *ChartOfAccounts
	events   *Publisher
	logger   *logrus.Logger
}

// StatusChange is the payload of EventTransactionStatusChanged.
type StatusChange struct {
	TransactionID string                   `json:"transaction_id"`
	From          models.TransactionStatus `json:"from"`
	To            models.TransactionStatus `json:"to"`
}

func NewTransactionLedger(store storage.Store, registry *CurrencyRegistry, rates *ExchangeRateStore, chart *ChartOfAccounts, events *Publisher, logger *logrus.Logger) *TransactionLedger {
	return &TransactionLedger{
		store:    store,
		registry: registry,
		rates:    rates,
		chart:    chart,
		events:   events,
		logger:   logger,
	}
}

// AddTransaction captures a new ledger event at status pending and applies
// its balance delta to the target account immediately. Balances reflect
// pending transactions; reports filter to confirmed ones. The transaction
// record is stored before the delta is applied, so no reader can observe a
// balance effect without the transaction that caused it.
func (l *TransactionLedger) AddTransaction(input models.NewTransaction) (*models.Transaction, error) {
	if !input.Type.Valid() {
		return nil, fmt.Errorf("unknown transaction type %q", input.Type)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, input.Amount)
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: transaction date is required", ErrInvalidAmount)
	}
	currency, err := l.registry.GetCurrency(input.CurrencyCode)
	if err != nil {
		return nil, err
	}
	account, err := l.chart.GetAccount(input.AccountID)
	if err != nil {
		return nil, err
	}
	if input.BankAccountID != "" {
		if _, exists, err := l.store.GetBankAccount(input.BankAccountID); err != nil {
			return nil, err
		} else if !exists {
			return nil, fmt.Errorf("%w: bank account %s", ErrAccountNotFound, input.BankAccountID)
		}
	}

	base, err := l.registry.BaseCurrency()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// The rate visible right now is the one frozen into the transaction.
	rate, err := l.rates.GetRate(currency.Code, base.Code, nil)
	if err != nil {
		return nil, err
	}
	baseAmount := base.Round(input.Amount.Mul(rate))

	// The balance delta converts into the account's currency. That rate
	// must resolve before anything is persisted: a conversion failure after
	// the write would leave a transaction on record with no balance effect.
	if account.CurrencyCode != currency.Code {
		if _, err := l.rates.GetRate(currency.Code, account.CurrencyCode, nil); err != nil {
			return nil, err
		}
	}

	var taxAmount decimal.Decimal
	if input.TaxRate.IsPositive() {
		breakdown, err := CalculateVAT(input.Amount, input.TaxRate, input.TaxInclusive, currency.DecimalPlaces)
		if err != nil {
			return nil, err
		}
		taxAmount = breakdown.VAT
	}

	txn := models.Transaction{
		ID:            uuid.NewString(),
		Type:          input.Type,
		Category:      input.Category,
		Subcategory:   input.Subcategory,
		Amount:        input.Amount,
		CurrencyCode:  currency.Code,
		BaseAmount:    baseAmount,
		CapturedRate:  rate,
		Date:          input.Date,
		AccountID:     input.AccountID,
		BankAccountID: input.BankAccountID,
		TaxRate:       input.TaxRate,
		TaxAmount:     taxAmount,
		TaxInclusive:  input.TaxInclusive,
		Status:        models.TransactionStatusPending,
		Description:   input.Description,
		Tags:          input.Tags,
		Metadata:      input.Metadata,
		OrderID:       input.OrderID,
		InvoiceID:     input.InvoiceID,
		CustomerID:    input.CustomerID,
		SupplierID:    input.SupplierID,
	}
	if err := l.store.PutTransaction(txn); err != nil {
		return nil, err
	}
	if err := l.chart.ApplyDelta(input.AccountID, input.Amount, currency.Code); err != nil {
		return nil, err
	}

	l.events.publish(EventTransactionAdded, txn)
	l.logger.WithFields(logrus.Fields{
		"transaction": txn.ID,
		"type":        string(txn.Type),
		"amount":      txn.Amount.String(),
		"currency":    txn.CurrencyCode,
		"base_amount": txn.BaseAmount.String(),
	}).Info("transaction added")
	return &txn, nil
}

// TransitionStatus moves a transaction forward through its lifecycle.
// Backward moves and repeats fail with ErrInvalidTransition.
func (l *TransactionLedger) TransitionStatus(id string, next models.TransactionStatus) (*models.Transaction, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txn, exists, err := l.store.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	if !txn.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, txn.Status, next)
	}

	prev := txn.Status
	txn.Status = next
	if err := l.store.PutTransaction(*txn); err != nil {
		return nil, err
	}
	l.events.publish(EventTransactionStatusChanged, StatusChange{TransactionID: txn.ID, From: prev, To: next})
	return txn, nil
}

func (l *TransactionLedger) GetTransaction(id string) (*models.Transaction, error) {
	txn, exists, err := l.store.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	return txn, nil
}

// QueryByTypeAndRange returns confirmed transactions only; reports build on
// it so pending and disputed entries never leak into statements.
func (l *TransactionLedger) QueryByTypeAndRange(txnType models.AccountType, start, end time.Time) ([]models.Transaction, error) {
	confirmed := models.TransactionStatusConfirmed
	return l.store.ListTransactions(models.TransactionFilter{
		Type:   &txnType,
		Status: &confirmed,
		Start:  &start,
		End:    &end,
	})
}

// ListByBankAccount returns every transaction tagged to a bank account,
// whatever its status. The reconciliation engine filters from there.
func (l *TransactionLedger) ListByBankAccount(bankAccountID string) ([]models.Transaction, error) {
	return l.store.ListTransactions(models.TransactionFilter{BankAccountID: bankAccountID})
}
