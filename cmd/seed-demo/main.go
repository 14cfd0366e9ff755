// seed-demo loads a demo data set into the ledger store: SAR as base
// currency plus USD and EUR, starting exchange rates, a small chart of
// accounts, a bank account and a handful of transactions.
//
// Usage (from backend directory):
//   STORAGE_DRIVER=mysql DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
//
// With STORAGE_DRIVER=memory the seed runs against an in-memory store and
// only exercises the code path; nothing survives the process.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/binaamarket/ledger_backend/config"
	"github.com/binaamarket/ledger_backend/ledger"
	"github.com/binaamarket/ledger_backend/models"
	"github.com/binaamarket/ledger_backend/storage"
)

func main() {
	config.LoadEnv()
	logger := config.NewLogger()

	var store storage.Store
	switch config.EnvString("STORAGE_DRIVER", "memory") {
	case "mysql":
		db, err := config.OpenDatabase()
		if err != nil {
			fmt.Fprintf(os.Stderr, "database: %v\n", err)
			os.Exit(1)
		}
		gs := storage.NewGorm(db)
		if err := gs.Migrate(); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
		store = gs
	default:
		store = storage.NewMemory()
	}

	svc := ledger.NewService(store, ledger.Options{Logger: logger})
	defer svc.Close()

	if err := seed(svc); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Demo data seeded: 3 currencies, 2 rate pairs, 6 accounts, 1 bank account, 5 transactions")
}

func seed(svc *ledger.Service) error {
	currencies := []models.NewCurrency{
		{Code: "SAR", Name: "Saudi Riyal", Symbol: "ر.س", DecimalPlaces: 2, IsBase: true},
		{Code: "USD", Name: "US Dollar", Symbol: "$", DecimalPlaces: 2},
		{Code: "EUR", Name: "Euro", Symbol: "€", DecimalPlaces: 2},
	}
	for _, c := range currencies {
		if _, err := svc.Registry.RegisterCurrency(c); err != nil {
			return fmt.Errorf("currency %s: %w", c.Code, err)
		}
	}

	if err := svc.UpdateExchangeRate("USD", "SAR", decimal.NewFromFloat(3.75), models.RateSourceManual, 1); err != nil {
		return fmt.Errorf("rate USD/SAR: %w", err)
	}
	if err := svc.UpdateExchangeRate("EUR", "SAR", decimal.NewFromFloat(4.05), models.RateSourceManual, 1); err != nil {
		return fmt.Errorf("rate EUR/SAR: %w", err)
	}

	accounts := []models.NewAccount{
		{Code: "1000", Name: "Assets", Type: models.AccountTypeAsset, CurrencyCode: "SAR"},
		{Code: "4000", Name: "Revenue", Type: models.AccountTypeRevenue, CurrencyCode: "SAR"},
		{Code: "5000", Name: "Expenses", Type: models.AccountTypeExpense, CurrencyCode: "SAR"},
	}
	ids := map[string]string{}
	for _, a := range accounts {
		id, err := svc.CreateAccount(a)
		if err != nil {
			return fmt.Errorf("account %s: %w", a.Code, err)
		}
		ids[a.Code] = id
	}

	children := []models.NewAccount{
		{Code: "1100", Name: "Cash", Type: models.AccountTypeAsset, ParentID: ids["1000"], CurrencyCode: "SAR"},
		{Code: "4100", Name: "Marketplace Sales", Type: models.AccountTypeRevenue, ParentID: ids["4000"], CurrencyCode: "SAR"},
		{Code: "5100", Name: "Logistics", Type: models.AccountTypeExpense, ParentID: ids["5000"], CurrencyCode: "USD"},
	}
	for _, a := range children {
		id, err := svc.CreateAccount(a)
		if err != nil {
			return fmt.Errorf("account %s: %w", a.Code, err)
		}
		ids[a.Code] = id
	}

	bank, err := svc.Recon.RegisterBankAccount(models.NewBankAccount{
		BankName:      "Riyad Bank",
		AccountNumber: "0108000123456",
		IBAN:          "SA0380000000608010167519",
		CurrencyCode:  "SAR",
		Balance:       decimal.NewFromInt(10000),
		AccountType:   "current",
	})
	if err != nil {
		return fmt.Errorf("bank account: %w", err)
	}

	now := time.Now().UTC()
	txns := []models.NewTransaction{
		{Type: models.AccountTypeRevenue, Category: "sales", Amount: decimal.NewFromInt(1150), CurrencyCode: "SAR", Date: now.AddDate(0, 0, -4), AccountID: ids["4100"], BankAccountID: bank.ID, TaxRate: decimal.NewFromFloat(0.15), TaxInclusive: true, Description: "order #1001"},
		{Type: models.AccountTypeRevenue, Category: "sales", Amount: decimal.NewFromInt(200), CurrencyCode: "USD", Date: now.AddDate(0, 0, -3), AccountID: ids["4100"], Description: "export order #1002"},
		{Type: models.AccountTypeRevenue, Category: "sales", Amount: decimal.NewFromInt(80), CurrencyCode: "EUR", Date: now.AddDate(0, 0, -2), AccountID: ids["4100"], Description: "export order #1003"},
		{Type: models.AccountTypeExpense, Category: "logistics", Amount: decimal.NewFromInt(45), CurrencyCode: "USD", Date: now.AddDate(0, 0, -2), AccountID: ids["5100"], TaxRate: decimal.NewFromFloat(0.15), Description: "last-mile courier"},
		{Type: models.AccountTypeExpense, Category: "fees", Amount: decimal.NewFromInt(120), CurrencyCode: "SAR", Date: now.AddDate(0, 0, -1), AccountID: ids["5000"], Description: "payment gateway fees"},
	}
	for i, t := range txns {
		id, err := svc.AddTransaction(t)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		if _, err := svc.Ledger.TransitionStatus(id, models.TransactionStatusConfirmed); err != nil {
			return fmt.Errorf("confirm transaction %d: %w", i, err)
		}
	}
	return nil
}
