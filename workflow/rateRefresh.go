// Package workflow holds the ledger's background processes.
package workflow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/binaamarket/ledger_backend/config"
	"github.com/binaamarket/ledger_backend/ledger"
	"github.com/binaamarket/ledger_backend/models"
)

// RatePair names one tracked ordered currency pair. Reciprocals are stored
// automatically, so track each pair in one direction only.
type RatePair struct {
	From string
	To   string
}

// RateQuote is one fetched rate.
type RateQuote struct {
	From       string
	To         string
	Rate       decimal.Decimal
	Source     models.RateSource
	Confidence float64
}

// RateSource fetches current rates for the tracked pairs. Implementations
// wrap an external provider; the fetch must respect ctx's deadline.
type RateSource interface {
	Fetch(ctx context.Context, pairs []RatePair) ([]RateQuote, error)
}

// RateRefresher periodically pulls quotes and feeds them into the rate
// store. It is fire-and-forget from the ledger's point of view: a failed
// fetch is logged and retried on the next tick, transaction writes are
// never blocked waiting on it.
type RateRefresher struct {
	rates        *ledger.ExchangeRateStore
	source       RateSource
	pairs        []RatePair
	interval     time.Duration
	fetchTimeout time.Duration
	logger       *logrus.Logger
}

func NewRateRefresher(rates *ledger.ExchangeRateStore, source RateSource, pairs []RatePair, interval time.Duration, logger *logrus.Logger) *RateRefresher {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RateRefresher{
		rates:        rates,
		source:       source,
		pairs:        pairs,
		interval:     interval,
		fetchTimeout: 30 * time.Second,
		logger:       logger,
	}
}

// Run refreshes once immediately, then on every tick until ctx is done.
// Call it in its own goroutine.
func (r *RateRefresher) Run(ctx context.Context) {
	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *RateRefresher) refresh(ctx context.Context) {
	if len(r.pairs) == 0 {
		return
	}
	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	quotes, err := r.source.Fetch(fetchCtx, r.pairs)
	if err != nil {
		config.LogError(r.logger, "rateRefresh.go", "refresh", "fetching rates", r.pairs, err)
		return
	}
	updated := 0
	for _, q := range quotes {
		if err := r.rates.UpdateRate(q.From, q.To, q.Rate, q.Source, q.Confidence); err != nil {
			config.LogError(r.logger, "rateRefresh.go", "refresh", "storing rate", q, err)
			continue
		}
		updated++
	}
	r.logger.WithFields(logrus.Fields{"pairs": len(r.pairs), "updated": updated}).Debug("rate refresh complete")
}
