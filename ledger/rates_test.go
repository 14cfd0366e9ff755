package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/binaamarket/ledger_backend/models"
)

func TestUpdateRate_StoresReciprocal(t *testing.T) {
	svc := newTestService(t)
	seedCurrencies(t, svc)

	forward, err := svc.GetExchangeRate("USD", "SAR", nil)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	mustEqual(t, forward, decimal.NewFromFloat(3.75), "forward rate")

	reverse, err := svc.GetExchangeRate("SAR", "USD", nil)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	// forward * reverse must round-trip to 1 within a hair of precision.
	product := forward.Mul(reverse)
	if product.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(decimal.NewFromFloat(0.0000001)) {
		t.Fatalf("forward*reverse = %s, want ~1", product)
	}
}

func TestUpdateRate_ReciprocalSharesTimestamp(t *testing.T) {
	svc := newTestService(t)
	seedCurrencies(t, svc)

	fwd, err := svc.Rates.ListRates("USD", "SAR")
	if err != nil {
		t.Fatalf("list forward: %v", err)
	}
	rev, err := svc.Rates.ListRates("SAR", "USD")
	if err != nil {
		t.Fatalf("list reverse: %v", err)
	}
	if len(fwd) == 0 || len(rev) == 0 {
		t.Fatal("expected history on both directions")
	}
	if !fwd[len(fwd)-1].EffectiveAt.Equal(rev[len(rev)-1].EffectiveAt) {
		t.Fatal("reciprocal entry must carry the same timestamp as the forward entry")
	}
}

func TestUpdateRate_Validation(t *testing.T) {
	svc := newTestService(t)
	seedCurrencies(t, svc)

	if err := svc.UpdateExchangeRate("USD", "USD", decimal.NewFromInt(1), models.RateSourceManual, 1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("identical pair: expected ErrInvalidAmount, got %v", err)
	}
	if err := svc.UpdateExchangeRate("USD", "SAR", decimal.Zero, models.RateSourceManual, 1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero rate: expected ErrInvalidAmount, got %v", err)
	}
	if err := svc.UpdateExchangeRate("USD", "SAR", decimal.NewFromInt(-1), models.RateSourceManual, 1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative rate: expected ErrInvalidAmount, got %v", err)
	}
	if err := svc.UpdateExchangeRate("USD", "JPY", decimal.NewFromFloat(150), models.RateSourceManual, 1); !errors.Is(err, ErrCurrencyNotFound) {
		t.Fatalf("unknown currency: expected ErrCurrencyNotFound, got %v", err)
	}
}

func TestGetRate_Identity(t *testing.T) {
	svc := newTestService(t)
	seedCurrencies(t, svc)

	rate, err := svc.GetExchangeRate("USD", "USD", nil)
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	mustEqual(t, rate, decimal.NewFromInt(1), "identity rate")
}

func TestGetRate_UnknownPairFails(t *testing.T) {
	svc := newTestService(t)
	seedCurrencies(t, svc)

	// USD/EUR was never quoted and must not be synthesized via SAR.
	_, err := svc.GetExchangeRate("USD", "EUR", nil)
	if !errors.Is(err, ErrExchangeRateNotFound) {
		t.Fatalf("expected ErrExchangeRateNotFound, got %v", err)
	}
}

func TestGetRate_LatestWins(t *testing.T) {
	svc := newTestService(t)
	seedCurrencies(t, svc)

	if err := svc.UpdateExchangeRate("USD", "SAR", decimal.NewFromFloat(3.80), models.RateSourceBank, 0.9); err != nil {
		t.Fatalf("update: %v", err)
	}
	rate, err := svc.GetExchangeRate("USD", "SAR", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	mustEqual(t, rate, decimal.NewFromFloat(3.80), "latest rate")
}

func TestGetRate_AsOfSameDay(t *testing.T) {
	svc := newTestService(t)
	seedCurrencies(t, svc)

	asOf := time.Now().UTC()
	rate, err := svc.GetExchangeRate("USD", "SAR", &asOf)
	if err != nil {
		t.Fatalf("asOf today: %v", err)
	}
	mustEqual(t, rate, decimal.NewFromFloat(3.75), "asOf rate")

	// A day with no entry falls back to the most recent rate.
	past := asOf.AddDate(0, 0, -30)
	rate, err = svc.GetExchangeRate("USD", "SAR", &past)
	if err != nil {
		t.Fatalf("asOf past: %v", err)
	}
	mustEqual(t, rate, decimal.NewFromFloat(3.75), "fallback rate")
}

func TestRateHistory_BoundedFIFO(t *testing.T) {
	svc := newTestService(t)
	seedCurrencies(t, svc)

	// One entry already exists from seeding; push well past the cap.
	for i := 0; i < models.RateHistoryLimit+20; i++ {
		rate := decimal.NewFromFloat(3.70).Add(decimal.New(int64(i), -4))
		if err := svc.UpdateExchangeRate("USD", "SAR", rate, models.RateSourceAPI, 0.8); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	history, err := svc.Rates.ListRates("USD", "SAR")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != models.RateHistoryLimit {
		t.Fatalf("history length: got %d, want %d", len(history), models.RateHistoryLimit)
	}
	// Oldest entries evicted first: the newest update is the last element.
	last := decimal.NewFromFloat(3.70).Add(decimal.New(int64(models.RateHistoryLimit+19), -4))
	mustEqual(t, history[len(history)-1].Rate, last, "newest retained rate")

	// Reciprocal history is capped too.
	reverse, err := svc.Rates.ListRates("SAR", "USD")
	if err != nil {
		t.Fatalf("list reverse: %v", err)
	}
	if len(reverse) != models.RateHistoryLimit {
		t.Fatalf("reverse history length: got %d, want %d", len(reverse), models.RateHistoryLimit)
	}
}
