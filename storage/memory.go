package storage

import (
	"sort"
	"sync"

	"github.com/binaamarket/ledger_backend/models"
)

// Memory is the authoritative in-memory Store. It is safe for concurrent
// use; every read hands back copies so callers can never mutate stored
// state behind the lock's back. Data is lost on restart; back it with the
// gorm store for durability.
type Memory struct {
	mu              sync.RWMutex
	currencies      map[string]models.Currency
	rates           map[string][]models.ExchangeRate
	accounts        map[string]models.Account
	transactions    map[string]models.Transaction
	txnOrder        []string
	bankAccounts    map[string]models.BankAccount
	reconciliations map[string]models.ReconciliationRecord
}

func NewMemory() *Memory {
	return &Memory{
		currencies:      make(map[string]models.Currency),
		rates:           make(map[string][]models.ExchangeRate),
		accounts:        make(map[string]models.Account),
		transactions:    make(map[string]models.Transaction),
		bankAccounts:    make(map[string]models.BankAccount),
		reconciliations: make(map[string]models.ReconciliationRecord),
	}
}

func (m *Memory) PutCurrency(c models.Currency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currencies[c.Code] = c
	return nil
}

func (m *Memory) GetCurrency(code string) (*models.Currency, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.currencies[code]
	if !ok {
		return nil, false, nil
	}
	cp := c
	return &cp, true, nil
}

func (m *Memory) ListCurrencies() ([]models.Currency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Currency, 0, len(m.currencies))
	for _, c := range m.currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *Memory) AppendRates(limit int, rates ...models.ExchangeRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rates {
		key := r.PairKey()
		history := append(m.rates[key], r)
		if limit > 0 && len(history) > limit {
			history = history[len(history)-limit:]
		}
		m.rates[key] = history
	}
	return nil
}

func (m *Memory) ListRates(from, to string) ([]models.ExchangeRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.rates[models.RatePairKey(from, to)]
	out := make([]models.ExchangeRate, len(history))
	copy(out, history)
	return out, nil
}

func (m *Memory) PutAccount(a models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) GetAccount(id string) (*models.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, false, nil
	}
	cp := a
	return &cp, true, nil
}

func (m *Memory) GetAccountByCode(code string) (*models.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.Code == code {
			cp := a
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (m *Memory) ListAccounts(filter models.AccountFilter) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Account
	for _, a := range m.accounts {
		if filter.Matches(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *Memory) PutTransaction(t models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.transactions[t.ID]; !exists {
		m.txnOrder = append(m.txnOrder, t.ID)
	}
	m.transactions[t.ID] = t
	return nil
}

func (m *Memory) GetTransaction(id string) (*models.Transaction, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, false, nil
	}
	cp := t
	return &cp, true, nil
}

func (m *Memory) ListTransactions(filter models.TransactionFilter) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Transaction
	for _, id := range m.txnOrder {
		t := m.transactions[id]
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) PutBankAccount(b models.BankAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bankAccounts[b.ID] = b
	return nil
}

func (m *Memory) GetBankAccount(id string) (*models.BankAccount, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bankAccounts[id]
	if !ok {
		return nil, false, nil
	}
	cp := b
	return &cp, true, nil
}

func (m *Memory) PutReconciliation(r models.ReconciliationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconciliations[r.ID] = r
	return nil
}

func (m *Memory) GetReconciliation(id string) (*models.ReconciliationRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reconciliations[id]
	if !ok {
		return nil, false, nil
	}
	cp := r
	return &cp, true, nil
}
