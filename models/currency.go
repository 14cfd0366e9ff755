package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is immutable after registration except for IsActive.
// Exactly one currency carries IsBase at any time; the registry enforces it.
type Currency struct {
	Code          string    `gorm:"primary_key;size:3" json:"code"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	Symbol        string    `gorm:"size:8" json:"symbol"`
	DecimalPlaces int32     `gorm:"not null;default:2" json:"decimal_places"`
	IsBase        bool      `gorm:"index;not null;default:false" json:"is_base"`
	IsActive      *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCurrency struct {
	Code          string `json:"code" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Symbol        string `json:"symbol"`
	DecimalPlaces int32  `json:"decimal_places"`
	IsBase        bool   `json:"is_base"`
}

// Round rounds an amount at this currency's declared precision.
// All cross-currency conversions round here and nowhere else.
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.DecimalPlaces)
}

// SmallestUnit is 10^-decimalPlaces, e.g. 0.01 for a 2-place currency.
// Reconciliation uses it as the amount-match epsilon.
func (c Currency) SmallestUnit() decimal.Decimal {
	return decimal.New(1, -c.DecimalPlaces)
}
