package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateHistoryLimit caps the stored history per ordered currency pair.
// Oldest entries are evicted first.
const RateHistoryLimit = 100

// ExchangeRate is one entry in the (FromCurrency -> ToCurrency) history.
// For every stored entry the reciprocal pair gets a 1/rate entry with the
// same EffectiveAt, so lookups never have to invert or hop through a third
// currency.
type ExchangeRate struct {
	ID           string          `gorm:"primary_key;size:36" json:"id"`
	FromCurrency string          `gorm:"index:idx_rate_pair,priority:1;size:3;not null" json:"from_currency"`
	ToCurrency   string          `gorm:"index:idx_rate_pair,priority:2;size:3;not null" json:"to_currency"`
	Rate         decimal.Decimal `gorm:"type:decimal(24,10);not null" json:"rate"`
	Source       RateSource      `gorm:"size:10;not null" json:"source"`
	Confidence   float64         `gorm:"not null;default:1" json:"confidence"`
	EffectiveAt  time.Time       `gorm:"index:idx_rate_pair,priority:3;not null" json:"effective_at"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (r ExchangeRate) PairKey() string {
	return RatePairKey(r.FromCurrency, r.ToCurrency)
}

func RatePairKey(from, to string) string {
	return from + "/" + to
}
