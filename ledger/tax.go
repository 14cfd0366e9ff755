package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VATBreakdown is the result of a VAT computation. Net + VAT = Total in
// both modes, up to rounding at the currency's precision.
type VATBreakdown struct {
	Net   decimal.Decimal `json:"net"`
	VAT   decimal.Decimal `json:"vat"`
	Total decimal.Decimal `json:"total"`
}

// CalculateVAT computes VAT with rate as a fraction (0.15 for 15%).
// Inclusive treats amount as gross: net = amount/(1+rate), vat = amount-net.
// Exclusive treats amount as net: vat = amount*rate, total = amount+vat.
// Rounding happens once, at places decimal places, so the two modes are
// exact inverses of each other at that precision.
func CalculateVAT(amount, rate decimal.Decimal, inclusive bool, places int32) (VATBreakdown, error) {
	if amount.IsNegative() {
		return VATBreakdown{}, fmt.Errorf("%w: amount must not be negative, got %s", ErrInvalidAmount, amount)
	}
	if rate.IsNegative() {
		return VATBreakdown{}, fmt.Errorf("%w: rate must not be negative, got %s", ErrInvalidAmount, rate)
	}

	if inclusive {
		net := amount.Div(decimal.NewFromInt(1).Add(rate)).Round(places)
		return VATBreakdown{
			Net:   net,
			VAT:   amount.Sub(net),
			Total: amount,
		}, nil
	}
	vat := amount.Mul(rate).Round(places)
	return VATBreakdown{
		Net:   amount,
		VAT:   vat,
		Total: amount.Add(vat),
	}, nil
}
