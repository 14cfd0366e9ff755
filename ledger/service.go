// Package ledger is the multi-currency accounting core: currency registry,
// bounded exchange-rate history, hierarchical chart of accounts, a
// transaction ledger with frozen capture rates, VAT computation, bank
// statement reconciliation and point-in-time report generation.
//
// The package is a library. Persistence is whatever storage.Store the
// caller injects; HTTP, auth and the rest of the marketplace live outside.
package ledger

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/binaamarket/ledger_backend/models"
	"github.com/binaamarket/ledger_backend/storage"
)

// Options configures optional collaborators. The zero value works: logging
// falls back to a discard-level logger and the report cache stays off.
type Options struct {
	Logger         *logrus.Logger
	ReportCache    *redis.Client
	ReportCacheTTL time.Duration
}

// Service wires the ledger components over one store and exposes the
// public API. Construct it explicitly and pass it around; there is no
// package-level instance.
type Service struct {
	Registry *CurrencyRegistry
	Rates    *ExchangeRateStore
	Chart    *ChartOfAccounts
	Ledger   *TransactionLedger
	Recon    *ReconciliationEngine
	Reports  *ReportGenerator
	Events   *Publisher

	logger *logrus.Logger
}

func NewService(store storage.Store, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.ErrorLevel)
	}

	events := NewPublisher()
	registry := NewCurrencyRegistry(store, logger)
	rates := NewExchangeRateStore(store, events, logger)
	chart := NewChartOfAccounts(store, rates, logger)
	txns := NewTransactionLedger(store, registry, rates, chart, events, logger)
	recon := NewReconciliationEngine(store, events, logger)
	reports := NewReportGenerator(store, registry, rates, opts.ReportCache, opts.ReportCacheTTL, logger)

	// Any rate or ledger event makes a cached report potentially stale, so
	// every event bumps the report cache generation. The channel closes with
	// the publisher, ending the goroutine on Close.
	invalidations := events.Subscribe(128)
	go func() {
		for range invalidations {
			reports.InvalidateCache()
		}
	}()

	return &Service{
		Registry: registry,
		Rates:    rates,
		Chart:    chart,
		Ledger:   txns,
		Recon:    recon,
		Reports:  reports,
		Events:   events,
		logger:   logger,
	}
}

func (s *Service) Close() {
	s.Events.Close()
}

// AddTransaction records a ledger event and returns its id.
func (s *Service) AddTransaction(input models.NewTransaction) (string, error) {
	txn, err := s.Ledger.AddTransaction(input)
	if err != nil {
		return "", err
	}
	return txn.ID, nil
}

func (s *Service) GetExchangeRate(from, to string, asOf *time.Time) (decimal.Decimal, error) {
	return s.Rates.GetRate(from, to, asOf)
}

func (s *Service) UpdateExchangeRate(from, to string, rate decimal.Decimal, source models.RateSource, confidence float64) error {
	return s.Rates.UpdateRate(from, to, rate, source, confidence)
}

func (s *Service) CreateAccount(input models.NewAccount) (string, error) {
	account, err := s.Chart.CreateAccount(input)
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

func (s *Service) GenerateIncomeStatement(start, end time.Time, currency string) (*models.IncomeStatement, error) {
	return s.Reports.GenerateIncomeStatement(start, end, currency)
}

func (s *Service) GenerateBalanceSheet(asOf time.Time, currency string) (*models.BalanceSheet, error) {
	return s.Reports.GenerateBalanceSheet(asOf, currency)
}

func (s *Service) GenerateVATReturn(start, end time.Time, currency string) (*models.VATReturn, error) {
	return s.Reports.GenerateVATReturn(start, end, currency)
}

// CalculateVAT rounds at the base currency's precision, or 2 places when no
// base currency is configured yet.
func (s *Service) CalculateVAT(amount, rate decimal.Decimal, inclusive bool) (VATBreakdown, error) {
	places := int32(2)
	if base, err := s.Registry.BaseCurrency(); err == nil {
		places = base.DecimalPlaces
	}
	return CalculateVAT(amount, rate, inclusive, places)
}

func (s *Service) ReconcileBankAccount(bankAccountID string, lines []models.StatementLine) (*models.ReconciliationRecord, error) {
	return s.Recon.Reconcile(bankAccountID, lines)
}
