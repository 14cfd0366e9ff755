package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/binaamarket/ledger_backend/models"
	"github.com/binaamarket/ledger_backend/storage"
)

// newTestService builds a Service over a fresh in-memory store with a
// silent logger. Tests that need currencies or rates seed them explicitly.
func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := NewService(storage.NewMemory(), Options{Logger: logger})
	t.Cleanup(svc.Close)
	return svc
}

// seedCurrencies registers SAR (base), USD and EUR with standard rates:
// 1 USD = 3.75 SAR, 1 EUR = 4.05 SAR.
func seedCurrencies(t *testing.T, svc *Service) {
	t.Helper()
	for _, c := range []models.NewCurrency{
		{Code: "SAR", Name: "Saudi Riyal", IsBase: true},
		{Code: "USD", Name: "US Dollar"},
		{Code: "EUR", Name: "Euro"},
	} {
		if _, err := svc.Registry.RegisterCurrency(c); err != nil {
			t.Fatalf("register %s: %v", c.Code, err)
		}
	}
	if err := svc.UpdateExchangeRate("USD", "SAR", decimal.NewFromFloat(3.75), models.RateSourceManual, 1); err != nil {
		t.Fatalf("rate USD/SAR: %v", err)
	}
	if err := svc.UpdateExchangeRate("EUR", "SAR", decimal.NewFromFloat(4.05), models.RateSourceManual, 1); err != nil {
		t.Fatalf("rate EUR/SAR: %v", err)
	}
}

// seedAccount creates one account and returns its id.
func seedAccount(t *testing.T, svc *Service, code string, typ models.AccountType, currency, parentID string) string {
	t.Helper()
	id, err := svc.CreateAccount(models.NewAccount{
		Code:         code,
		Name:         "account " + code,
		Type:         typ,
		ParentID:     parentID,
		CurrencyCode: currency,
	})
	if err != nil {
		t.Fatalf("create account %s: %v", code, err)
	}
	return id
}

func mustEqual(t *testing.T, got, want decimal.Decimal, label string) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s: got %s, want %s", label, got, want)
	}
}

func day(offset int) time.Time {
	return time.Now().UTC().AddDate(0, 0, offset)
}
