package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/binaamarket/ledger_backend/models"
	"github.com/binaamarket/ledger_backend/storage"
	"github.com/binaamarket/ledger_backend/utils"
)

// ChartOfAccounts owns the account tree and is the only component that
// writes balances. ApplyDelta is the single mutation entry point; the
// transaction ledger calls it, nothing else does.
type ChartOfAccounts struct {
	mu     sync.Mutex
	store  storage.Store
	rates  *ExchangeRateStore
	logger *logrus.Logger
	now    func() time.Time
}

func NewChartOfAccounts(store storage.Store, rates *ExchangeRateStore, logger *logrus.Logger) *ChartOfAccounts {
	return &ChartOfAccounts{
		store:  store,
		rates:  rates,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateAccount validates the parent (when given) and derives the level
// from it. Parents are fixed at creation; there is no re-parenting, so the
// structure stays a tree by construction.
func (c *ChartOfAccounts) CreateAccount(input models.NewAccount) (*models.Account, error) {
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %q", ErrInvalidHierarchy, input.Type)
	}
	if _, exists, err := c.store.GetCurrency(input.CurrencyCode); err != nil {
		return nil, err
	} else if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCurrencyNotFound, input.CurrencyCode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists, err := c.store.GetAccountByCode(input.Code); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: account code %s already exists", ErrInvalidHierarchy, input.Code)
	}

	level := 1
	if input.ParentID != "" {
		parent, exists, err := c.store.GetAccount(input.ParentID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: parent account %s not found", ErrInvalidHierarchy, input.ParentID)
		}
		if parent.Type != input.Type {
			return nil, fmt.Errorf("%w: child type %s under parent type %s", ErrInvalidHierarchy, input.Type, parent.Type)
		}
		level = parent.Level + 1
	}

	account := models.Account{
		ID:           uuid.NewString(),
		Code:         input.Code,
		Name:         input.Name,
		NameLocal:    input.NameLocal,
		Type:         input.Type,
		SubType:      input.SubType,
		ParentID:     input.ParentID,
		Level:        level,
		CurrencyCode: input.CurrencyCode,
		Balance:      decimal.Zero,
		Description:  input.Description,
		IsActive:     utils.NewTrue(),
	}
	if err := c.store.PutAccount(account); err != nil {
		return nil, err
	}
	c.logger.WithFields(logrus.Fields{
		"account": account.Code, "type": string(account.Type), "level": level,
	}).Info("account created")
	return &account, nil
}

func (c *ChartOfAccounts) GetAccount(id string) (*models.Account, error) {
	a, exists, err := c.store.GetAccount(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return a, nil
}

func (c *ChartOfAccounts) ListAccounts(filter models.AccountFilter) ([]models.Account, error) {
	return c.store.ListAccounts(filter)
}

// SetAccountActive toggles the active flag. Deactivation leaves the stored
// balance in place; reports keep counting it until it is posted away.
func (c *ChartOfAccounts) SetAccountActive(id string, active bool) (*models.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	account, exists, err := c.store.GetAccount(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	account.IsActive = &active
	if err := c.store.PutAccount(*account); err != nil {
		return nil, err
	}
	return account, nil
}

// ApplyDelta adds amount to the account's balance, converting into the
// account's own currency at the current rate first when the currencies
// differ. Rounding happens once, at the account currency's precision. The
// read-modify-write runs under the chart mutex so concurrent deltas never
// lose updates.
func (c *ChartOfAccounts) ApplyDelta(accountID string, amount decimal.Decimal, amountCurrency string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyDeltaLocked(accountID, amount, amountCurrency)
}

func (c *ChartOfAccounts) applyDeltaLocked(accountID string, amount decimal.Decimal, amountCurrency string) error {
	account, exists, err := c.store.GetAccount(accountID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	delta := amount
	if amountCurrency != account.CurrencyCode {
		rate, err := c.rates.GetRate(amountCurrency, account.CurrencyCode, nil)
		if err != nil {
			return err
		}
		delta = amount.Mul(rate)
	}
	currency, exists, err := c.store.GetCurrency(account.CurrencyCode)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCurrencyNotFound, account.CurrencyCode)
	}

	account.Balance = account.Balance.Add(currency.Round(delta))
	account.BalanceUpdatedAt = c.now()
	return c.store.PutAccount(*account)
}

// SubtreeBalance aggregates an account and all of its descendants into the
// root account's currency at current rates. Stored balances never roll up;
// this is the read-time aggregation for callers that want the tree view.
func (c *ChartOfAccounts) SubtreeBalance(id string) (decimal.Decimal, error) {
	root, exists, err := c.store.GetAccount(id)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !exists {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	currency, exists, err := c.store.GetCurrency(root.CurrencyCode)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !exists {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrCurrencyNotFound, root.CurrencyCode)
	}

	all, err := c.store.ListAccounts(models.AccountFilter{})
	if err != nil {
		return decimal.Decimal{}, err
	}
	children := make(map[string][]models.Account)
	for _, a := range all {
		if a.ParentID != "" {
			children[a.ParentID] = append(children[a.ParentID], a)
		}
	}

	total := decimal.Zero
	queue := []models.Account{*root}
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		balance := a.Balance
		if a.CurrencyCode != root.CurrencyCode {
			rate, err := c.rates.GetRate(a.CurrencyCode, root.CurrencyCode, nil)
			if err != nil {
				return decimal.Decimal{}, err
			}
			balance = currency.Round(balance.Mul(rate))
		}
		total = total.Add(balance)
		queue = append(queue, children[a.ID]...)
	}
	return total, nil
}
