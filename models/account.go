package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a node in the chart of accounts. Ownership is strictly
// hierarchical: ParentID is fixed at creation, Level is parent.Level+1
// (1 for roots). Balance is stored in the account's own currency and a
// child's balance never rolls up into its parent's stored balance;
// aggregation happens on read (ChartOfAccounts.SubtreeBalance).
type Account struct {
	ID               string          `gorm:"primary_key;size:36" json:"id"`
	Code             string          `gorm:"uniqueIndex;size:20;not null" json:"code"`
	Name             string          `gorm:"index;size:100;not null" json:"name"`
	NameLocal        string          `gorm:"size:100" json:"name_local"`
	Type             AccountType     `gorm:"index;size:10;not null" json:"type"`
	SubType          string          `gorm:"size:50" json:"sub_type"`
	ParentID         string          `gorm:"index;size:36" json:"parent_id"`
	Level            int             `gorm:"not null;default:1" json:"level"`
	CurrencyCode     string          `gorm:"size:3;not null" json:"currency_code"`
	Balance          decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0" json:"balance"`
	BalanceUpdatedAt time.Time       `json:"balance_updated_at"`
	Description      string          `gorm:"type:text" json:"description"`
	IsActive         *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAccount struct {
	Code         string      `json:"code" binding:"required"`
	Name         string      `json:"name" binding:"required"`
	NameLocal    string      `json:"name_local"`
	Type         AccountType `json:"type" binding:"required"`
	SubType      string      `json:"sub_type"`
	ParentID     string      `json:"parent_id"`
	CurrencyCode string      `json:"currency_code" binding:"required"`
	Description  string      `json:"description"`
}

// AccountFilter narrows ListAccounts. Nil/zero fields match everything.
type AccountFilter struct {
	Type       *AccountType
	ParentID   *string
	ActiveOnly bool
}

func (f AccountFilter) Matches(a Account) bool {
	if f.Type != nil && a.Type != *f.Type {
		return false
	}
	if f.ParentID != nil && a.ParentID != *f.ParentID {
		return false
	}
	if f.ActiveOnly && (a.IsActive == nil || !*a.IsActive) {
		return false
	}
	return true
}
