package units

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/version"
)

// RateSource fetches USD-based exchange rates keyed by ISO 4217 code.
type RateSource interface {
	FetchRates(ctx context.Context) (map[string]float64, error)
}

// HTTPRateSource fetches rates from an exchangerate-api style endpoint.
type HTTPRateSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Logger  *slog.Logger
}

type rateResponse struct {
	Result          string             `json:"result"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// FetchRates implements RateSource.
func (s *HTTPRateSource) FetchRates(ctx context.Context) (map[string]float64, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	if s.Logger != nil {
		s.Logger.Info("fetching currency exchange rates")
	}

	url := fmt.Sprintf("%s/%s/latest/USD", s.BaseURL, s.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rate request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rates: %w", err)
	}
	defer resp.Body.Close()

	var decoded rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding rate response: %w", err)
	}
	if decoded.Result != "success" || decoded.ConversionRates == nil {
		return nil, fmt.Errorf("rate API returned %q", decoded.Result)
	}
	return decoded.ConversionRates, nil
}

// RateCache caches rates from a RateSource for a TTL, gating concurrent
// refreshes to a single in-flight fetch.
type RateCache struct {
	source RateSource
	ttl    time.Duration
	now    func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	rates   map[string]float64
	expires time.Time
}

// NewRateCache creates a cache over source. A non-positive ttl disables
// caching entirely.
func NewRateCache(source RateSource, ttl time.Duration) *RateCache {
	return &RateCache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the cache clock. Tests use this to control expiry.
func (c *RateCache) WithClock(now func() time.Time) *RateCache {
	c.now = now
	return c
}

// Rates returns the cached rates, refreshing from the source when stale.
func (c *RateCache) Rates(ctx context.Context) (map[string]float64, error) {
	c.mu.RLock()
	if c.rates != nil && c.now().Before(c.expires) {
		rates := c.rates
		c.mu.RUnlock()
		return rates, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.group.Do("rates", func() (interface{}, error) {
		// Another caller may have refreshed while we waited on the group.
		c.mu.RLock()
		if c.rates != nil && c.now().Before(c.expires) {
			rates := c.rates
			c.mu.RUnlock()
			return rates, nil
		}
		c.mu.RUnlock()

		rates, err := c.source.FetchRates(ctx)
		if err != nil {
			return nil, errors.NewCollaboratorError("convertUnits", err)
		}

		c.mu.Lock()
		c.rates = rates
		c.expires = c.now().Add(c.ttl)
		c.mu.Unlock()
		return rates, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]float64), nil
}
