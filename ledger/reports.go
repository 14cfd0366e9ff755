package ledger

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/binaamarket/ledger_backend/config"
	"github.com/binaamarket/ledger_backend/models"
	"github.com/binaamarket/ledger_backend/storage"
)

// Cost of goods is not modeled separately, so gross profit is estimated as
// revenue minus this share of total expenses. The report labels it an
// estimate.
var grossProfitCostShare = decimal.NewFromFloat(0.7)

// ReportGenerator builds point-in-time views over confirmed transactions
// and current account balances. Historical transactions are audit-frozen in
// base currency, but display conversion always uses the rate current at
// report time, so re-running a report after a rate move yields different
// display figures. That is the product's "today's value" semantics.
type ReportGenerator struct {
	store    storage.Store
	registry *CurrencyRegistry
	rates    *ExchangeRateStore
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *logrus.Logger
	now      func() time.Time

	// gen is the cache generation, part of every cache key. Rate and
	// ledger changes bump it, so stale entries stop being addressable.
	gen atomic.Uint64
}

func NewReportGenerator(store storage.Store, registry *CurrencyRegistry, rates *ExchangeRateStore, cache *redis.Client, cacheTTL time.Duration, logger *logrus.Logger) *ReportGenerator {
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &ReportGenerator{
		store:    store,
		registry: registry,
		rates:    rates,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// InvalidateCache starts a new cache generation. Entries written under the
// old generation expire unread when their TTL runs out.
func (g *ReportGenerator) InvalidateCache() {
	g.gen.Add(1)
}

func (g *ReportGenerator) cacheGet(key string, dest interface{}) bool {
	if g.cache == nil {
		return false
	}
	found, err := config.GetRedisObject(g.cache, key, dest)
	if err != nil {
		config.LogError(g.logger, "reports.go", "cacheGet", key, nil, err)
		return false
	}
	return found
}

func (g *ReportGenerator) cacheSet(key string, obj interface{}) {
	if g.cache == nil {
		return
	}
	if err := config.SetRedisObject(g.cache, key, obj, g.cacheTTL); err != nil {
		config.LogError(g.logger, "reports.go", "cacheSet", key, nil, err)
	}
}

// GenerateIncomeStatement sums confirmed revenue and expense transactions
// in [start, end], each converted from its frozen base amount into the
// display currency at the current rate, rounded per transaction at the
// display currency's precision.
func (g *ReportGenerator) GenerateIncomeStatement(start, end time.Time, displayCurrency string) (*models.IncomeStatement, error) {
	display, err := g.registry.GetCurrency(displayCurrency)
	if err != nil {
		return nil, err
	}
	base, err := g.registry.BaseCurrency()
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("report:income:%d:%s:%s:%s", g.gen.Load(), start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"), display.Code)
	var cached models.IncomeStatement
	if g.cacheGet(key, &cached) {
		return &cached, nil
	}

	rate, err := g.rates.GetRate(base.Code, display.Code, nil)
	if err != nil {
		return nil, err
	}

	confirmed := models.TransactionStatusConfirmed
	stmt := &models.IncomeStatement{
		StartDate:          start,
		EndDate:            end,
		DisplayCurrency:    display.Code,
		TotalRevenue:       decimal.Zero,
		TotalExpenses:      decimal.Zero,
		RevenueByCategory:  make(map[string]decimal.Decimal),
		ExpensesByCategory: make(map[string]decimal.Decimal),
		GeneratedAt:        g.now(),
	}

	for _, txnType := range []models.AccountType{models.AccountTypeRevenue, models.AccountTypeExpense} {
		t := txnType
		txns, err := g.store.ListTransactions(models.TransactionFilter{
			Type:   &t,
			Status: &confirmed,
			Start:  &start,
			End:    &end,
		})
		if err != nil {
			return nil, err
		}
		for _, txn := range txns {
			converted := display.Round(txn.BaseAmount.Mul(rate))
			category := txn.Category
			if category == "" {
				category = "uncategorized"
			}
			if txnType == models.AccountTypeRevenue {
				stmt.TotalRevenue = stmt.TotalRevenue.Add(converted)
				stmt.RevenueByCategory[category] = stmt.RevenueByCategory[category].Add(converted)
			} else {
				stmt.TotalExpenses = stmt.TotalExpenses.Add(converted)
				stmt.ExpensesByCategory[category] = stmt.ExpensesByCategory[category].Add(converted)
			}
			stmt.TransactionCount++
		}
	}

	stmt.NetIncome = stmt.TotalRevenue.Sub(stmt.TotalExpenses)
	stmt.GrossProfitEstimate = display.Round(stmt.TotalRevenue.Sub(stmt.TotalExpenses.Mul(grossProfitCostShare)))

	g.cacheSet(key, stmt)
	return stmt, nil
}

// GenerateBalanceSheet sums current account balances by type, converted
// into the display currency at current rates. There is no balance history:
// asOf is advisory metadata echoed into the report.
func (g *ReportGenerator) GenerateBalanceSheet(asOf time.Time, displayCurrency string) (*models.BalanceSheet, error) {
	display, err := g.registry.GetCurrency(displayCurrency)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("report:balance:%d:%s:%s", g.gen.Load(), asOf.UTC().Format("2006-01-02"), display.Code)
	var cached models.BalanceSheet
	if g.cacheGet(key, &cached) {
		return &cached, nil
	}

	sheet := &models.BalanceSheet{
		AsOf:            asOf,
		DisplayCurrency: display.Code,
		GeneratedAt:     g.now(),
	}

	sections := map[models.AccountType]*models.BalanceSheetSection{
		models.AccountTypeAsset:     &sheet.Assets,
		models.AccountTypeLiability: &sheet.Liabilities,
		models.AccountTypeEquity:    &sheet.Equity,
	}
	// Deactivated accounts keep their balances on the sheet; deactivation
	// stops new postings, it does not write the balance off.
	accounts, err := g.store.ListAccounts(models.AccountFilter{})
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		section, ok := sections[account.Type]
		if !ok {
			continue
		}
		balance := account.Balance
		if account.CurrencyCode != display.Code {
			rate, err := g.rates.GetRate(account.CurrencyCode, display.Code, nil)
			if err != nil {
				return nil, err
			}
			balance = display.Round(balance.Mul(rate))
		}
		section.Lines = append(section.Lines, models.BalanceSheetLine{
			AccountID:   account.ID,
			AccountCode: account.Code,
			AccountName: account.Name,
			Balance:     balance,
		})
		section.Total = section.Total.Add(balance)
	}

	g.cacheSet(key, sheet)
	return sheet, nil
}

// GenerateVATReturn sums captured tax over confirmed transactions in range.
// Revenue transactions contribute output VAT, expenses input VAT; tax
// amounts are converted from the transaction currency at current rates.
func (g *ReportGenerator) GenerateVATReturn(start, end time.Time, displayCurrency string) (*models.VATReturn, error) {
	display, err := g.registry.GetCurrency(displayCurrency)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("report:vat:%d:%s:%s:%s", g.gen.Load(), start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"), display.Code)
	var cached models.VATReturn
	if g.cacheGet(key, &cached) {
		return &cached, nil
	}

	ret := &models.VATReturn{
		StartDate:       start,
		EndDate:         end,
		DisplayCurrency: display.Code,
		OutputVAT:       decimal.Zero,
		InputVAT:        decimal.Zero,
		GeneratedAt:     g.now(),
	}

	confirmed := models.TransactionStatusConfirmed
	for _, txnType := range []models.AccountType{models.AccountTypeRevenue, models.AccountTypeExpense} {
		t := txnType
		txns, err := g.store.ListTransactions(models.TransactionFilter{
			Type:   &t,
			Status: &confirmed,
			Start:  &start,
			End:    &end,
		})
		if err != nil {
			return nil, err
		}
		for _, txn := range txns {
			if txn.TaxAmount.IsZero() {
				continue
			}
			tax := txn.TaxAmount
			if txn.CurrencyCode != display.Code {
				rate, err := g.rates.GetRate(txn.CurrencyCode, display.Code, nil)
				if err != nil {
					return nil, err
				}
				tax = display.Round(tax.Mul(rate))
			}
			if txnType == models.AccountTypeRevenue {
				ret.OutputVAT = ret.OutputVAT.Add(tax)
			} else {
				ret.InputVAT = ret.InputVAT.Add(tax)
			}
		}
	}
	ret.NetVAT = ret.OutputVAT.Sub(ret.InputVAT)

	g.cacheSet(key, ret)
	return ret, nil
}
