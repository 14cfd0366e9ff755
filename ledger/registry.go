package ledger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/binaamarket/ledger_backend/models"
	"github.com/binaamarket/ledger_backend/storage"
	"github.com/binaamarket/ledger_backend/utils"
)

// CurrencyRegistry owns the currency table and the single-base invariant.
type CurrencyRegistry struct {
	mu     sync.Mutex
	store  storage.CurrencyStore
	logger *logrus.Logger
}

func NewCurrencyRegistry(store storage.CurrencyStore, logger *logrus.Logger) *CurrencyRegistry {
	return &CurrencyRegistry{store: store, logger: logger}
}

// RegisterCurrency adds a currency. The first currency registered becomes
// the base when the input does not name one. Codes are ISO 4217, stored
// upper-case.
func (r *CurrencyRegistry) RegisterCurrency(input models.NewCurrency) (*models.Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if len(code) != 3 {
		return nil, fmt.Errorf("currency code must be 3 letters, got %q", input.Code)
	}
	places := input.DecimalPlaces
	if places == 0 {
		places = 2
	}
	if places != 2 && places != 3 {
		return nil, fmt.Errorf("%w: decimal places must be 2 or 3, got %d", ErrInvalidAmount, input.DecimalPlaces)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists, err := r.store.GetCurrency(code); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCurrency, code)
	}

	isBase := input.IsBase
	existing, err := r.store.ListCurrencies()
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		isBase = true
	}
	if isBase {
		// Clear the prior base before the new one lands.
		for _, c := range existing {
			if c.IsBase {
				c.IsBase = false
				if err := r.store.PutCurrency(c); err != nil {
					return nil, err
				}
			}
		}
	}

	currency := models.Currency{
		Code:          code,
		Name:          input.Name,
		Symbol:        input.Symbol,
		DecimalPlaces: places,
		IsBase:        isBase,
		IsActive:      utils.NewTrue(),
	}
	if err := r.store.PutCurrency(currency); err != nil {
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{"currency": code, "is_base": isBase}).Info("currency registered")
	return &currency, nil
}

// SetBaseCurrency moves the base flag to code, clearing the prior base in
// the same locked step so there is never zero or two bases.
func (r *CurrencyRegistry) SetBaseCurrency(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))

	r.mu.Lock()
	defer r.mu.Unlock()

	next, exists, err := r.store.GetCurrency(code)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCurrencyNotFound, code)
	}
	if next.IsBase {
		return nil
	}

	all, err := r.store.ListCurrencies()
	if err != nil {
		return err
	}
	for _, c := range all {
		if c.IsBase {
			c.IsBase = false
			if err := r.store.PutCurrency(c); err != nil {
				return err
			}
		}
	}
	next.IsBase = true
	if err := r.store.PutCurrency(*next); err != nil {
		return err
	}
	r.logger.WithField("currency", code).Info("base currency changed")
	return nil
}

// BaseCurrency returns the currency carrying the base flag.
func (r *CurrencyRegistry) BaseCurrency() (*models.Currency, error) {
	all, err := r.store.ListCurrencies()
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if c.IsBase {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: no base currency configured", ErrCurrencyNotFound)
}

func (r *CurrencyRegistry) GetCurrency(code string) (*models.Currency, error) {
	c, exists, err := r.store.GetCurrency(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCurrencyNotFound, code)
	}
	return c, nil
}

func (r *CurrencyRegistry) ListCurrencies() ([]models.Currency, error) {
	return r.store.ListCurrencies()
}

// SetCurrencyActive toggles the active flag. The base currency stays active.
func (r *CurrencyRegistry) SetCurrencyActive(code string, active bool) (*models.Currency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists, err := r.store.GetCurrency(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCurrencyNotFound, code)
	}
	if !active && c.IsBase {
		return nil, fmt.Errorf("cannot deactivate base currency %s", c.Code)
	}
	c.IsActive = &active
	if err := r.store.PutCurrency(*c); err != nil {
		return nil, err
	}
	return c, nil
}
