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
	"github.com/binaamarket/ledger_backend/utils"
)

// Amounts within this fraction of the statement line count as "near" when
// classifying an unmatched line as an amount mismatch.
var amountMismatchTolerance = decimal.NewFromFloat(0.05)

// ReconciliationEngine matches bank statement lines against ledger
// transactions tagged to the same bank account. It never mutates balances;
// unmatched lines become recorded discrepancies for manual resolution.
type ReconciliationEngine struct {
	mu     sync.Mutex
	store  storage.Store
	events *Publisher
	logger *logrus.Logger
	now    func() time.Time
}

func NewReconciliationEngine(store storage.Store, events *Publisher, logger *logrus.Logger) *ReconciliationEngine {
	return &ReconciliationEngine{
		store:  store,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (e *ReconciliationEngine) RegisterBankAccount(input models.NewBankAccount) (*models.BankAccount, error) {
	if _, exists, err := e.store.GetCurrency(input.CurrencyCode); err != nil {
		return nil, err
	} else if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCurrencyNotFound, input.CurrencyCode)
	}
	account := models.BankAccount{
		ID:               uuid.NewString(),
		BankName:         input.BankName,
		AccountNumber:    input.AccountNumber,
		IBAN:             input.IBAN,
		SwiftCode:        input.SwiftCode,
		CurrencyCode:     input.CurrencyCode,
		Balance:          input.Balance,
		AvailableBalance: input.AvailableBalance,
		AccountType:      input.AccountType,
		IsActive:         utils.NewTrue(),
	}
	if err := e.store.PutBankAccount(account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (e *ReconciliationEngine) GetBankAccount(id string) (*models.BankAccount, error) {
	b, exists, err := e.store.GetBankAccount(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: bank account %s", ErrAccountNotFound, id)
	}
	return b, nil
}

// Reconcile runs greedy one-to-one matching: each statement line takes the
// first unmatched ledger transaction on the account whose amount differs by
// less than one smallest currency unit and whose date is within one day.
// A matched transaction leaves the pool, so no line can claim it twice.
// The record starts in_progress and must be finalized explicitly; unmatched
// lines are a normal outcome, not a failure.
func (e *ReconciliationEngine) Reconcile(bankAccountID string, lines []models.StatementLine) (*models.ReconciliationRecord, error) {
	bank, err := e.GetBankAccount(bankAccountID)
	if err != nil {
		return nil, err
	}
	currency, exists, err := e.store.GetCurrency(bank.CurrencyCode)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCurrencyNotFound, bank.CurrencyCode)
	}
	epsilon := currency.SmallestUnit()

	e.mu.Lock()
	defer e.mu.Unlock()

	candidates, err := e.store.ListTransactions(models.TransactionFilter{BankAccountID: bankAccountID})
	if err != nil {
		return nil, err
	}
	pool := make([]models.Transaction, 0, len(candidates))
	for _, t := range candidates {
		if t.MatchedLineID == "" && t.Status != models.TransactionStatusDisputed {
			pool = append(pool, t)
		}
	}
	used := make([]bool, len(pool))

	record := models.ReconciliationRecord{
		ID:             uuid.NewString(),
		BankAccountID:  bankAccountID,
		OpeningBalance: bank.Balance,
		Status:         models.ReconciliationStatusInProgress,
		StartedAt:      e.now(),
	}

	closing := bank.Balance
	statementDate := time.Time{}
	for _, input := range lines {
		closing = closing.Add(input.SignedAmount())
		if input.Date.After(statementDate) {
			statementDate = input.Date
		}

		line := models.BankLine{
			ID:               uuid.NewString(),
			ReconciliationID: record.ID,
			BankAccountID:    bankAccountID,
			Date:             input.Date,
			Amount:           input.Amount.Abs(),
			CurrencyCode:     input.CurrencyCode,
			Direction:        input.Direction,
			Description:      input.Description,
			Reference:        input.Reference,
		}

		matched := -1
		for i, txn := range pool {
			if used[i] {
				continue
			}
			if txn.Amount.Sub(line.Amount).Abs().LessThan(epsilon) && utils.DaysApart(txn.Date, line.Date) <= 1 {
				matched = i
				break
			}
		}
		if matched >= 0 {
			used[matched] = true
			txn := pool[matched]
			txn.MatchedLineID = line.ID
			if err := e.store.PutTransaction(txn); err != nil {
				return nil, err
			}
			line.Reconciled = true
			line.MatchedTransactionID = txn.ID
			record.MatchedTransactionIDs = append(record.MatchedTransactionIDs, txn.ID)
		} else {
			record.UnmatchedLineIDs = append(record.UnmatchedLineIDs, line.ID)
			record.Discrepancies = append(record.Discrepancies, e.classify(line, pool, used, epsilon))
		}
		record.Lines = append(record.Lines, line)
	}

	if statementDate.IsZero() {
		statementDate = e.now()
	}
	record.StatementDate = statementDate
	record.ClosingBalance = closing

	if err := e.store.PutReconciliation(record); err != nil {
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{
		"reconciliation": record.ID,
		"bank_account":   bankAccountID,
		"lines":          len(lines),
		"matched":        len(record.MatchedTransactionIDs),
		"unmatched":      len(record.UnmatchedLineIDs),
	}).Info("reconciliation run")
	return &record, nil
}

// classify guesses why a line failed to match. A candidate with the right
// amount outside the date window points at a date mismatch; one inside the
// window with a near amount points at an amount mismatch; a line whose
// amount and date fit a transaction already claimed in this run looks like
// a duplicate; anything else has no ledger counterpart at all.
func (e *ReconciliationEngine) classify(line models.BankLine, pool []models.Transaction, used []bool, epsilon decimal.Decimal) models.ReconciliationDiscrepancy {
	disc := models.ReconciliationDiscrepancy{
		ID:         uuid.NewString(),
		BankLineID: line.ID,
		Actual:     line.Amount,
		DetectedAt: e.now(),
	}

	nearTolerance := line.Amount.Mul(amountMismatchTolerance)
	for i, txn := range pool {
		amountDiff := txn.Amount.Sub(line.Amount).Abs()
		dayDiff := utils.DaysApart(txn.Date, line.Date)
		switch {
		case used[i] && amountDiff.LessThan(epsilon) && dayDiff <= 1:
			disc.Type = models.DiscrepancyDuplicate
			disc.TransactionID = txn.ID
			disc.Expected = txn.Amount
			disc.Difference = amountDiff
			disc.Description = fmt.Sprintf("statement line repeats already-matched transaction %s", txn.ID)
			return disc
		case !used[i] && amountDiff.LessThan(epsilon):
			disc.Type = models.DiscrepancyDateMismatch
			disc.TransactionID = txn.ID
			disc.Expected = txn.Amount
			disc.Difference = amountDiff
			disc.Description = fmt.Sprintf("amount matches transaction %s but dates differ by %d days", txn.ID, dayDiff)
			return disc
		case !used[i] && dayDiff <= 1 && amountDiff.LessThanOrEqual(nearTolerance):
			disc.Type = models.DiscrepancyAmountMismatch
			disc.TransactionID = txn.ID
			disc.Expected = txn.Amount
			disc.Difference = amountDiff
			disc.Description = fmt.Sprintf("date matches transaction %s but amounts differ by %s", txn.ID, amountDiff)
			return disc
		}
	}

	disc.Type = models.DiscrepancyMissingTransaction
	disc.Description = "no ledger transaction found for statement line"
	return disc
}

// FinalizeReconciliation closes an in-progress record as completed or
// disputed. Completion stamps the bank account's last-reconciled time and
// moves matched confirmed transactions to reconciled.
func (e *ReconciliationEngine) FinalizeReconciliation(recordID string, status models.ReconciliationStatus) (*models.ReconciliationRecord, error) {
	if status != models.ReconciliationStatusCompleted && status != models.ReconciliationStatusDisputed {
		return nil, fmt.Errorf("%w: reconciliation can only be finalized as completed or disputed", ErrInvalidTransition)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	record, exists, err := e.store.GetReconciliation(recordID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: reconciliation %s", ErrAccountNotFound, recordID)
	}
	if record.Status != models.ReconciliationStatusInProgress && record.Status != models.ReconciliationStatusPending {
		return nil, fmt.Errorf("%w: reconciliation already %s", ErrInvalidTransition, record.Status)
	}

	now := e.now()
	record.Status = status
	record.CompletedAt = &now
	if err := e.store.PutReconciliation(*record); err != nil {
		return nil, err
	}

	if status == models.ReconciliationStatusCompleted {
		bank, exists, err := e.store.GetBankAccount(record.BankAccountID)
		if err != nil {
			return nil, err
		}
		if exists {
			bank.LastReconciledAt = &now
			if err := e.store.PutBankAccount(*bank); err != nil {
				return nil, err
			}
		}
		for _, id := range record.MatchedTransactionIDs {
			txn, exists, err := e.store.GetTransaction(id)
			if err != nil {
				return nil, err
			}
			if !exists || txn.Status != models.TransactionStatusConfirmed {
				continue
			}
			txn.Status = models.TransactionStatusReconciled
			if err := e.store.PutTransaction(*txn); err != nil {
				return nil, err
			}
		}
	}

	e.events.publish(EventReconciliationCompleted, *record)
	return record, nil
}

func (e *ReconciliationEngine) GetReconciliation(id string) (*models.ReconciliationRecord, error) {
	r, exists, err := e.store.GetReconciliation(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: reconciliation %s", ErrAccountNotFound, id)
	}
	return r, nil
}
