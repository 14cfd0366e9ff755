package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/binaamarket/ledger_backend/models"
)

// reconcileFixture seeds currencies, a revenue account and a bank account,
// and returns the bank account id plus a helper that records a confirmed
// transaction tagged to it.
func reconcileFixture(t *testing.T, svc *Service) (string, func(amount string, offset int) string) {
	t.Helper()
	seedCurrencies(t, svc)
	accountID := seedAccount(t, svc, "4000", models.AccountTypeRevenue, "SAR", "")

	bank, err := svc.Recon.RegisterBankAccount(models.NewBankAccount{
		BankName:     "Riyad Bank",
		CurrencyCode: "SAR",
		Balance:      decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("bank account: %v", err)
	}

	addTxn := func(amount string, offset int) string {
		t.Helper()
		id, err := svc.AddTransaction(models.NewTransaction{
			Type:          models.AccountTypeRevenue,
			Amount:        decimal.RequireFromString(amount),
			CurrencyCode:  "SAR",
			Date:          day(offset),
			AccountID:     accountID,
			BankAccountID: bank.ID,
		})
		if err != nil {
			t.Fatalf("add transaction: %v", err)
		}
		if _, err := svc.Ledger.TransitionStatus(id, models.TransactionStatusConfirmed); err != nil {
			t.Fatalf("confirm: %v", err)
		}
		return id
	}
	return bank.ID, addTxn
}

func creditLine(amount string, offset int) models.StatementLine {
	return models.StatementLine{
		Date:         day(offset),
		Amount:       decimal.RequireFromString(amount),
		CurrencyCode: "SAR",
		Direction:    models.BankLineCredit,
	}
}

func TestReconcile_ExactMatch(t *testing.T) {
	svc := newTestService(t)
	bankID, addTxn := reconcileFixture(t, svc)
	txnID := addTxn("150.00", 0)

	record, err := svc.ReconcileBankAccount(bankID, []models.StatementLine{creditLine("150.00", 0)})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if len(record.MatchedTransactionIDs) != 1 || record.MatchedTransactionIDs[0] != txnID {
		t.Fatalf("matched ids: %v", record.MatchedTransactionIDs)
	}
	if len(record.Discrepancies) != 0 {
		t.Fatalf("expected no discrepancies, got %d", len(record.Discrepancies))
	}
	if record.Status != models.ReconciliationStatusInProgress {
		t.Fatalf("fresh record status: got %s, want in_progress", record.Status)
	}
	mustEqual(t, record.OpeningBalance, decimal.NewFromInt(1000), "opening balance")
	mustEqual(t, record.ClosingBalance, decimal.RequireFromString("1150"), "closing balance")

	txn, err := svc.Ledger.GetTransaction(txnID)
	if err != nil {
		t.Fatalf("get txn: %v", err)
	}
	if txn.MatchedLineID == "" {
		t.Fatal("matched transaction must carry the line id")
	}
}

// One transaction can satisfy at most one statement line per run.
func TestReconcile_OneToOne(t *testing.T) {
	svc := newTestService(t)
	bankID, addTxn := reconcileFixture(t, svc)
	addTxn("99.00", 0)

	record, err := svc.ReconcileBankAccount(bankID, []models.StatementLine{
		creditLine("99.00", 0),
		creditLine("99.00", 0),
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(record.MatchedTransactionIDs) != 1 {
		t.Fatalf("matched: got %d, want 1", len(record.MatchedTransactionIDs))
	}
	if len(record.Discrepancies) != 1 {
		t.Fatalf("discrepancies: got %d, want 1", len(record.Discrepancies))
	}
	if record.Discrepancies[0].Type != models.DiscrepancyDuplicate {
		t.Fatalf("second line: got %s, want duplicate", record.Discrepancies[0].Type)
	}
}

func TestReconcile_MissingTransaction(t *testing.T) {
	svc := newTestService(t)
	bankID, _ := reconcileFixture(t, svc)

	record, err := svc.ReconcileBankAccount(bankID, []models.StatementLine{creditLine("500.00", 0)})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(record.Discrepancies) != 1 || record.Discrepancies[0].Type != models.DiscrepancyMissingTransaction {
		t.Fatalf("expected missing_transaction, got %+v", record.Discrepancies)
	}
}

func TestReconcile_DateMismatch(t *testing.T) {
	svc := newTestService(t)
	bankID, addTxn := reconcileFixture(t, svc)
	addTxn("75.00", -5)

	record, err := svc.ReconcileBankAccount(bankID, []models.StatementLine{creditLine("75.00", 0)})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(record.Discrepancies) != 1 || record.Discrepancies[0].Type != models.DiscrepancyDateMismatch {
		t.Fatalf("expected date_mismatch, got %+v", record.Discrepancies)
	}
}

func TestReconcile_AmountMismatch(t *testing.T) {
	svc := newTestService(t)
	bankID, addTxn := reconcileFixture(t, svc)
	addTxn("100.00", 0)

	// Same day, 3% off: close enough to flag, too far to match.
	record, err := svc.ReconcileBankAccount(bankID, []models.StatementLine{creditLine("103.00", 0)})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(record.Discrepancies) != 1 || record.Discrepancies[0].Type != models.DiscrepancyAmountMismatch {
		t.Fatalf("expected amount_mismatch, got %+v", record.Discrepancies)
	}
	mustEqual(t, record.Discrepancies[0].Difference, decimal.NewFromInt(3), "difference")
}

func TestReconcile_DateWindowOneDay(t *testing.T) {
	svc := newTestService(t)
	bankID, addTxn := reconcileFixture(t, svc)
	addTxn("60.00", -1)

	record, err := svc.ReconcileBankAccount(bankID, []models.StatementLine{creditLine("60.00", 0)})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(record.MatchedTransactionIDs) != 1 {
		t.Fatalf("one-day-apart line should match, got %d matches", len(record.MatchedTransactionIDs))
	}
}

func TestReconcile_UnknownBankAccount(t *testing.T) {
	svc := newTestService(t)
	seedCurrencies(t, svc)

	_, err := svc.ReconcileBankAccount("missing", nil)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestFinalizeReconciliation_Completed(t *testing.T) {
	svc := newTestService(t)
	bankID, addTxn := reconcileFixture(t, svc)
	txnID := addTxn("88.00", 0)

	record, err := svc.ReconcileBankAccount(bankID, []models.StatementLine{creditLine("88.00", 0)})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	done, err := svc.Recon.FinalizeReconciliation(record.ID, models.ReconciliationStatusCompleted)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if done.Status != models.ReconciliationStatusCompleted || done.CompletedAt == nil {
		t.Fatalf("record not completed: %+v", done.Status)
	}

	txn, err := svc.Ledger.GetTransaction(txnID)
	if err != nil {
		t.Fatalf("get txn: %v", err)
	}
	if txn.Status != models.TransactionStatusReconciled {
		t.Fatalf("matched transaction status: got %s, want reconciled", txn.Status)
	}

	bank, err := svc.Recon.GetBankAccount(bankID)
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if bank.LastReconciledAt == nil {
		t.Fatal("LastReconciledAt not stamped")
	}

	// A finalized record cannot be finalized again.
	if _, err := svc.Recon.FinalizeReconciliation(record.ID, models.ReconciliationStatusDisputed); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("re-finalize: expected ErrInvalidTransition, got %v", err)
	}
}

func TestFinalizeReconciliation_RejectsNonTerminalStatus(t *testing.T) {
	svc := newTestService(t)
	bankID, _ := reconcileFixture(t, svc)

	record, err := svc.ReconcileBankAccount(bankID, nil)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if _, err := svc.Recon.FinalizeReconciliation(record.ID, models.ReconciliationStatusInProgress); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestReconcile_DebitLinesReduceClosingBalance(t *testing.T) {
	svc := newTestService(t)
	bankID, _ := reconcileFixture(t, svc)

	record, err := svc.ReconcileBankAccount(bankID, []models.StatementLine{{
		Date:         day(0),
		Amount:       decimal.NewFromInt(200),
		CurrencyCode: "SAR",
		Direction:    models.BankLineDebit,
	}})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	mustEqual(t, record.ClosingBalance, decimal.NewFromInt(800), "closing after debit")
}
