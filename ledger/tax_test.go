package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculateVAT_Exclusive(t *testing.T) {
	b, err := CalculateVAT(decimal.NewFromInt(100), decimal.NewFromFloat(0.15), false, 2)
	if err != nil {
		t.Fatalf("exclusive: %v", err)
	}
	mustEqual(t, b.Net, decimal.NewFromInt(100), "net")
	mustEqual(t, b.VAT, decimal.NewFromInt(15), "vat")
	mustEqual(t, b.Total, decimal.NewFromInt(115), "total")
}

func TestCalculateVAT_Inclusive(t *testing.T) {
	b, err := CalculateVAT(decimal.NewFromInt(115), decimal.NewFromFloat(0.15), true, 2)
	if err != nil {
		t.Fatalf("inclusive: %v", err)
	}
	mustEqual(t, b.Net, decimal.NewFromInt(100), "net")
	mustEqual(t, b.VAT, decimal.NewFromInt(15), "vat")
	mustEqual(t, b.Total, decimal.NewFromInt(115), "total")
}

// Exclusive then inclusive on the result must return the original net, so
// a stored gross figure can always be decomposed back.
func TestCalculateVAT_RoundTrip(t *testing.T) {
	rate := decimal.NewFromFloat(0.15)
	for _, amt := range []string{"100", "19.99", "0.01", "12345.67"} {
		amount := decimal.RequireFromString(amt)
		ex, err := CalculateVAT(amount, rate, false, 2)
		if err != nil {
			t.Fatalf("exclusive %s: %v", amt, err)
		}
		in, err := CalculateVAT(ex.Total, rate, true, 2)
		if err != nil {
			t.Fatalf("inclusive %s: %v", amt, err)
		}
		if in.Net.Sub(amount).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
			t.Fatalf("round trip %s: got net %s", amt, in.Net)
		}
	}
}

func TestCalculateVAT_NetPlusVATEqualsTotal(t *testing.T) {
	for _, amt := range []string{"33.33", "0.07", "999.95"} {
		amount := decimal.RequireFromString(amt)
		for _, inclusive := range []bool{true, false} {
			b, err := CalculateVAT(amount, decimal.NewFromFloat(0.15), inclusive, 2)
			if err != nil {
				t.Fatalf("calc %s inclusive=%v: %v", amt, inclusive, err)
			}
			if !b.Net.Add(b.VAT).Equal(b.Total) {
				t.Fatalf("%s inclusive=%v: net %s + vat %s != total %s", amt, inclusive, b.Net, b.VAT, b.Total)
			}
		}
	}
}

func TestCalculateVAT_ZeroRate(t *testing.T) {
	b, err := CalculateVAT(decimal.NewFromInt(50), decimal.Zero, false, 2)
	if err != nil {
		t.Fatalf("zero rate: %v", err)
	}
	mustEqual(t, b.VAT, decimal.Zero.Round(2), "vat at zero rate")
	mustEqual(t, b.Total, decimal.NewFromInt(50), "total at zero rate")
}

func TestCalculateVAT_RejectsNegatives(t *testing.T) {
	if _, err := CalculateVAT(decimal.NewFromInt(-1), decimal.NewFromFloat(0.15), false, 2); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := CalculateVAT(decimal.NewFromInt(10), decimal.NewFromFloat(-0.15), false, 2); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative rate: expected ErrInvalidAmount, got %v", err)
	}
}
