package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/binaamarket/ledger_backend/models"
)

// Gorm backs the Store interfaces with a relational database. The model
// structs carry the schema in their gorm tags; Migrate creates it.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Migrate() error {
	return g.db.AutoMigrate(
		&models.Currency{},
		&models.ExchangeRate{},
		&models.Account{},
		&models.Transaction{},
		&models.BankAccount{},
		&models.ReconciliationRecord{},
	)
}

func (g *Gorm) PutCurrency(c models.Currency) error {
	return g.db.Save(&c).Error
}

func (g *Gorm) GetCurrency(code string) (*models.Currency, bool, error) {
	var c models.Currency
	err := g.db.First(&c, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &c, true, nil
}

func (g *Gorm) ListCurrencies() ([]models.Currency, error) {
	var out []models.Currency
	if err := g.db.Order("code").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gorm) AppendRates(limit int, rates ...models.ExchangeRate) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		for _, r := range rates {
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
			if limit <= 0 {
				continue
			}
			var count int64
			if err := tx.Model(&models.ExchangeRate{}).
				Where("from_currency = ? AND to_currency = ?", r.FromCurrency, r.ToCurrency).
				Count(&count).Error; err != nil {
				return err
			}
			if count <= int64(limit) {
				continue
			}
			var ids []string
			if err := tx.Model(&models.ExchangeRate{}).
				Where("from_currency = ? AND to_currency = ?", r.FromCurrency, r.ToCurrency).
				Order("effective_at asc, created_at asc").
				Limit(int(count) - limit).
				Pluck("id", &ids).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", ids).Delete(&models.ExchangeRate{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *Gorm) ListRates(from, to string) ([]models.ExchangeRate, error) {
	var out []models.ExchangeRate
	err := g.db.Where("from_currency = ? AND to_currency = ?", from, to).
		Order("effective_at asc, created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gorm) PutAccount(a models.Account) error {
	return g.db.Save(&a).Error
}

func (g *Gorm) GetAccount(id string) (*models.Account, bool, error) {
	var a models.Account
	err := g.db.First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &a, true, nil
}

func (g *Gorm) GetAccountByCode(code string) (*models.Account, bool, error) {
	var a models.Account
	err := g.db.First(&a, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &a, true, nil
}

func (g *Gorm) ListAccounts(filter models.AccountFilter) ([]models.Account, error) {
	q := g.db.Model(&models.Account{})
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.ParentID != nil {
		q = q.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Account
	if err := q.Order("code").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gorm) PutTransaction(t models.Transaction) error {
	return g.db.Save(&t).Error
}

func (g *Gorm) GetTransaction(id string) (*models.Transaction, bool, error) {
	var t models.Transaction
	err := g.db.First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &t, true, nil
}

func (g *Gorm) ListTransactions(filter models.TransactionFilter) ([]models.Transaction, error) {
	q := g.db.Model(&models.Transaction{})
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.BankAccountID != "" {
		q = q.Where("bank_account_id = ?", filter.BankAccountID)
	}
	if filter.AccountID != "" {
		q = q.Where("account_id = ?", filter.AccountID)
	}
	if filter.Start != nil {
		q = q.Where("date >= ?", *filter.Start)
	}
	if filter.End != nil {
		q = q.Where("date <= ?", *filter.End)
	}
	var out []models.Transaction
	if err := q.Order("created_at asc, id asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gorm) PutBankAccount(b models.BankAccount) error {
	return g.db.Save(&b).Error
}

func (g *Gorm) GetBankAccount(id string) (*models.BankAccount, bool, error) {
	var b models.BankAccount
	err := g.db.First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &b, true, nil
}

func (g *Gorm) PutReconciliation(r models.ReconciliationRecord) error {
	return g.db.Save(&r).Error
}

func (g *Gorm) GetReconciliation(id string) (*models.ReconciliationRecord, bool, error) {
	var r models.ReconciliationRecord
	err := g.db.First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &r, true, nil
}
