package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/binaamarket/ledger_backend/models"
	"github.com/binaamarket/ledger_backend/storage"
	"github.com/binaamarket/ledger_backend/utils"
)

// ExchangeRateStore keeps a bounded, append-only rate history per ordered
// currency pair. Every accepted update also stores the reciprocal pair at
// 1/rate with the same timestamp, so GetRate never inverts or synthesizes
// multi-hop conversions: a pair either has explicit history or the lookup
// fails.
type ExchangeRateStore struct {
	mu     sync.Mutex
	store  storage.Store
	events *Publisher
	logger *logrus.Logger
	now    func() time.Time
}

// RateUpdate is the payload of EventRateUpdated.
type RateUpdate struct {
	FromCurrency string            `json:"from_currency"`
	ToCurrency   string            `json:"to_currency"`
	Rate         decimal.Decimal   `json:"rate"`
	Source       models.RateSource `json:"source"`
	EffectiveAt  time.Time         `json:"effective_at"`
}

func NewExchangeRateStore(store storage.Store, events *Publisher, logger *logrus.Logger) *ExchangeRateStore {
	return &ExchangeRateStore{
		store:  store,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// UpdateRate appends a (from, to) entry and its reciprocal in one atomic
// step. Histories are capped at models.RateHistoryLimit, oldest first out.
func (s *ExchangeRateStore) UpdateRate(from, to string, rate decimal.Decimal, source models.RateSource, confidence float64) error {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return fmt.Errorf("%w: identical currency pair %s", ErrInvalidAmount, from)
	}
	if !rate.IsPositive() {
		return fmt.Errorf("%w: rate must be positive, got %s", ErrInvalidAmount, rate)
	}
	if !source.Valid() {
		source = models.RateSourceManual
	}
	for _, code := range []string{from, to} {
		if _, exists, err := s.store.GetCurrency(code); err != nil {
			return err
		} else if !exists {
			return fmt.Errorf("%w: %s", ErrCurrencyNotFound, code)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	forward := models.ExchangeRate{
		ID:           uuid.NewString(),
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		Source:       source,
		Confidence:   confidence,
		EffectiveAt:  at,
	}
	reciprocal := models.ExchangeRate{
		ID:           uuid.NewString(),
		FromCurrency: to,
		ToCurrency:   from,
		Rate:         decimal.NewFromInt(1).Div(rate),
		Source:       source,
		Confidence:   confidence,
		EffectiveAt:  at,
	}
	if err := s.store.AppendRates(models.RateHistoryLimit, forward, reciprocal); err != nil {
		return err
	}

	s.events.publish(EventRateUpdated, RateUpdate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		Source:       source,
		EffectiveAt:  at,
	})
	s.logger.WithFields(logrus.Fields{
		"from": from, "to": to, "rate": rate.String(), "source": string(source),
	}).Debug("exchange rate updated")
	return nil
}

// GetRate resolves a conversion rate. Identity pairs return 1 without a
// lookup. With asOf set, the latest entry on that UTC calendar day wins;
// when that day has no entry the most recent one is returned, matching
// transaction capture which always sees the freshest visible rate.
func (s *ExchangeRateStore) GetRate(from, to string, asOf *time.Time) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	history, err := s.store.ListRates(from, to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if len(history) == 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: %s -> %s", ErrExchangeRateNotFound, from, to)
	}

	if asOf != nil {
		for i := len(history) - 1; i >= 0; i-- {
			if utils.SameDay(history[i].EffectiveAt, *asOf) {
				return history[i].Rate, nil
			}
		}
	}
	return history[len(history)-1].Rate, nil
}

// ListRates exposes the stored history for a pair, oldest first.
func (s *ExchangeRateStore) ListRates(from, to string) ([]models.ExchangeRate, error) {
	return s.store.ListRates(strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to)))
}
