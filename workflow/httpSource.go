package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/binaamarket/ledger_backend/models"
)

// HTTPRateSource fetches quotes from a JSON endpoint, one call per pair:
// GET {base}?from=USD&to=SAR -> {"rate": "3.7500", "confidence": 0.98}.
type HTTPRateSource struct {
	BaseURL string
	Client  *http.Client
}

type httpQuote struct {
	Rate       decimal.Decimal `json:"rate"`
	Confidence float64         `json:"confidence"`
}

func (s *HTTPRateSource) Fetch(ctx context.Context, pairs []RatePair) ([]RateQuote, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	quotes := make([]RateQuote, 0, len(pairs))
	for _, pair := range pairs {
		u := fmt.Sprintf("%s?from=%s&to=%s", s.BaseURL, url.QueryEscape(pair.From), url.QueryEscape(pair.To))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("rate provider returned %s for %s/%s", resp.Status, pair.From, pair.To)
		}
		var quote httpQuote
		err = json.NewDecoder(resp.Body).Decode(&quote)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, RateQuote{
			From:       pair.From,
			To:         pair.To,
			Rate:       quote.Rate,
			Source:     models.RateSourceAPI,
			Confidence: quote.Confidence,
		})
	}
	return quotes, nil
}
