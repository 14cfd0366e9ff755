package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/binaamarket/ledger_backend/models"
)

// reportFixture seeds three confirmed revenue transactions (300, 200, 100
// SAR) and two confirmed expenses (150, 50 SAR), plus one pending revenue
// entry that must never show up in reports.
func reportFixture(t *testing.T, svc *Service) {
	t.Helper()
	seedCurrencies(t, svc)
	revenueID := seedAccount(t, svc, "4000", models.AccountTypeRevenue, "SAR", "")
	expenseID := seedAccount(t, svc, "5000", models.AccountTypeExpense, "SAR", "")

	add := func(typ models.AccountType, accountID, amount, category string, confirm bool) {
		t.Helper()
		id, err := svc.AddTransaction(models.NewTransaction{
			Type:         typ,
			Category:     category,
			Amount:       decimal.RequireFromString(amount),
			CurrencyCode: "SAR",
			Date:         day(-1),
			AccountID:    accountID,
			TaxRate:      decimal.NewFromFloat(0.15),
		})
		if err != nil {
			t.Fatalf("add %s %s: %v", typ, amount, err)
		}
		if confirm {
			if _, err := svc.Ledger.TransitionStatus(id, models.TransactionStatusConfirmed); err != nil {
				t.Fatalf("confirm: %v", err)
			}
		}
	}

	add(models.AccountTypeRevenue, revenueID, "300", "sales", true)
	add(models.AccountTypeRevenue, revenueID, "200", "sales", true)
	add(models.AccountTypeRevenue, revenueID, "100", "services", true)
	add(models.AccountTypeExpense, expenseID, "150", "logistics", true)
	add(models.AccountTypeExpense, expenseID, "50", "fees", true)
	add(models.AccountTypeRevenue, revenueID, "9999", "sales", false)
}

func TestIncomeStatement_Totals(t *testing.T) {
	svc := newTestService(t)
	reportFixture(t, svc)

	stmt, err := svc.GenerateIncomeStatement(day(-7), day(0), "SAR")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	mustEqual(t, stmt.TotalRevenue, decimal.NewFromInt(600), "total revenue")
	mustEqual(t, stmt.TotalExpenses, decimal.NewFromInt(200), "total expenses")
	mustEqual(t, stmt.NetIncome, decimal.NewFromInt(400), "net income")
	if stmt.TransactionCount != 5 {
		t.Fatalf("transaction count: got %d, want 5", stmt.TransactionCount)
	}
	mustEqual(t, stmt.RevenueByCategory["sales"], decimal.NewFromInt(500), "sales category")
	mustEqual(t, stmt.RevenueByCategory["services"], decimal.NewFromInt(100), "services category")
	mustEqual(t, stmt.ExpensesByCategory["logistics"], decimal.NewFromInt(150), "logistics category")
	// revenue - 0.7 * expenses
	mustEqual(t, stmt.GrossProfitEstimate, decimal.NewFromInt(460), "gross profit estimate")
}

func TestIncomeStatement_DisplayCurrencyConversion(t *testing.T) {
	svc := newTestService(t)
	reportFixture(t, svc)

	stmt, err := svc.GenerateIncomeStatement(day(-7), day(0), "USD")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Each frozen SAR base amount converts at the reciprocal of 3.75,
	// rounded per transaction: 80.00 + 53.33 + 26.67 = 160.00.
	mustEqual(t, stmt.TotalRevenue, decimal.RequireFromString("160"), "revenue in USD")
}

func TestIncomeStatement_UsesCurrentRateNotCapturedRate(t *testing.T) {
	svc := newTestService(t)
	reportFixture(t, svc)

	before, err := svc.GenerateIncomeStatement(day(-7), day(0), "USD")
	if err != nil {
		t.Fatalf("generate before: %v", err)
	}

	// Halve the SAR value of a dollar; USD display figures double.
	if err := svc.UpdateExchangeRate("USD", "SAR", decimal.NewFromFloat(1.875), models.RateSourceManual, 1); err != nil {
		t.Fatalf("update rate: %v", err)
	}
	after, err := svc.GenerateIncomeStatement(day(-7), day(0), "USD")
	if err != nil {
		t.Fatalf("generate after: %v", err)
	}

	if !after.TotalRevenue.GreaterThan(before.TotalRevenue) {
		t.Fatalf("display figures should move with the rate: before %s, after %s", before.TotalRevenue, after.TotalRevenue)
	}
}

func TestBalanceSheet_SectionsAndConversion(t *testing.T) {
	svc := newTestService(t)
	seedCurrencies(t, svc)

	cashID := seedAccount(t, svc, "1000", models.AccountTypeAsset, "SAR", "")
	usdID := seedAccount(t, svc, "1100", models.AccountTypeAsset, "USD", "")
	loanID := seedAccount(t, svc, "2000", models.AccountTypeLiability, "SAR", "")
	// Revenue accounts never appear on the balance sheet.
	seedAccount(t, svc, "4000", models.AccountTypeRevenue, "SAR", "")

	if err := svc.Chart.ApplyDelta(cashID, decimal.NewFromInt(1000), "SAR"); err != nil {
		t.Fatalf("cash delta: %v", err)
	}
	if err := svc.Chart.ApplyDelta(usdID, decimal.NewFromInt(100), "USD"); err != nil {
		t.Fatalf("usd delta: %v", err)
	}
	if err := svc.Chart.ApplyDelta(loanID, decimal.NewFromInt(400), "SAR"); err != nil {
		t.Fatalf("loan delta: %v", err)
	}

	sheet, err := svc.GenerateBalanceSheet(day(0), "SAR")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// 1000 SAR + 100 USD * 3.75
	mustEqual(t, sheet.Assets.Total, decimal.NewFromInt(1375), "assets total")
	mustEqual(t, sheet.Liabilities.Total, decimal.NewFromInt(400), "liabilities total")
	if len(sheet.Assets.Lines) != 2 {
		t.Fatalf("asset lines: got %d, want 2", len(sheet.Assets.Lines))
	}
	if len(sheet.Equity.Lines) != 0 {
		t.Fatalf("equity lines: got %d, want 0", len(sheet.Equity.Lines))
	}
}

// Deactivating an account stops new postings, not reporting: its balance
// stays on the sheet until it is posted away.
func TestBalanceSheet_IncludesDeactivatedAccounts(t *testing.T) {
	svc := newTestService(t)
	seedCurrencies(t, svc)

	cashID := seedAccount(t, svc, "1000", models.AccountTypeAsset, "SAR", "")
	if err := svc.Chart.ApplyDelta(cashID, decimal.NewFromInt(100), "SAR"); err != nil {
		t.Fatalf("delta: %v", err)
	}
	if _, err := svc.Chart.SetAccountActive(cashID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	sheet, err := svc.GenerateBalanceSheet(day(0), "SAR")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	mustEqual(t, sheet.Assets.Total, decimal.NewFromInt(100), "assets total with deactivated account")
}

// Rate and ledger events start a new cache generation, so cached reports
// keyed under the old one stop being served within their TTL.
func TestReports_EventsAdvanceCacheGeneration(t *testing.T) {
	svc := newTestService(t)
	seedCurrencies(t, svc)

	before := svc.Reports.gen.Load()
	if err := svc.UpdateExchangeRate("USD", "SAR", decimal.NewFromFloat(3.80), models.RateSourceManual, 1); err != nil {
		t.Fatalf("update rate: %v", err)
	}

	// The bump happens on the subscriber goroutine; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for svc.Reports.gen.Load() == before {
		if time.Now().After(deadline) {
			t.Fatal("cache generation did not advance after a rate update")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestVATReturn_OutputAndInput(t *testing.T) {
	svc := newTestService(t)
	reportFixture(t, svc)

	ret, err := svc.GenerateVATReturn(day(-7), day(0), "SAR")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Exclusive 15% on confirmed amounts: output 0.15*(300+200+100),
	// input 0.15*(150+50).
	mustEqual(t, ret.OutputVAT, decimal.NewFromInt(90), "output VAT")
	mustEqual(t, ret.InputVAT, decimal.NewFromInt(30), "input VAT")
	mustEqual(t, ret.NetVAT, decimal.NewFromInt(60), "net VAT")
}

func TestReports_UnknownDisplayCurrency(t *testing.T) {
	svc := newTestService(t)
	reportFixture(t, svc)

	if _, err := svc.GenerateIncomeStatement(day(-7), day(0), "JPY"); err == nil {
		t.Fatal("expected error for unknown display currency")
	}
	if _, err := svc.GenerateBalanceSheet(day(0), "JPY"); err == nil {
		t.Fatal("expected error for unknown display currency")
	}
}
