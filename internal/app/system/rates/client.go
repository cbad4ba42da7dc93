// Package rates looks up currency names and exchange rates from the
// Frankfurter public API, with a short-TTL cache in front so repeated
// conversions between the same pair do not refetch.
//
// Rate data is advisory: a cache entry going stale early or late only changes
// which published rate a conversion sees, never correctness of stored history.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public Frankfurter endpoint.
const DefaultBaseURL = "https://api.frankfurter.app"

var (
	// ErrUnknownCurrency is returned when the rate service does not know a
	// requested currency code.
	ErrUnknownCurrency = errors.New("unknown currency code")
	// ErrUpstream is returned for network failures, non-2xx responses, and
	// malformed upstream payloads.
	ErrUpstream = errors.New("rate lookup failed")
)

// Conversion is the outcome of one rate lookup.
// Rate is the unit rate from From to To; Result is Amount converted.
type Conversion struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Rate   float64 `json:"rate"`
	Result float64 `json:"result"`
}

// Config holds rate client settings.
type Config struct {
	BaseURL  string        // rate service base URL (default: DefaultBaseURL)
	Timeout  time.Duration // per-request timeout
	CacheTTL time.Duration // how long rates and the currency list are cached
}

// Client fetches currencies and rates.
type Client struct {
	baseURL string
	ttl     time.Duration
	hc      *http.Client
	cache   Cache
	logger  *zap.Logger
}

// NewClient creates a rate client. cache must not be nil; use NewMemoryCache
// when Redis is not configured.
func NewClient(cfg Config, cache Cache, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	return &Client{
		baseURL: cfg.BaseURL,
		ttl:     cfg.CacheTTL,
		hc:      &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		logger:  logger,
	}
}

// Currencies returns the supported currency codes mapped to display names.
func (c *Client) Currencies(ctx context.Context) (map[string]string, error) {
	const cacheKey = "rates:currencies"

	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		var out map[string]string
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return out, nil
		}
	}

	var out map[string]string
	if err := c.getJSON(ctx, c.baseURL+"/currencies", &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty currency list", ErrUpstream)
	}

	if encoded, err := json.Marshal(out); err == nil {
		if err := c.cache.Set(ctx, cacheKey, string(encoded), c.ttl); err != nil {
			c.logger.Warn("failed to cache currency list", zap.Error(err))
		}
	}
	return out, nil
}

// Convert looks up the rate from one currency to another and applies it to
// amount. Same-currency conversions short-circuit with a unit rate.
func (c *Client) Convert(ctx context.Context, amount float64, from, to string) (Conversion, error) {
	if from == to {
		return Conversion{Amount: amount, From: from, To: to, Rate: 1, Result: amount}, nil
	}

	rate, err := c.unitRate(ctx, from, to)
	if err != nil {
		return Conversion{}, err
	}

	return Conversion{
		Amount: amount,
		From:   from,
		To:     to,
		Rate:   rate,
		Result: amount * rate,
	}, nil
}

// unitRate returns the 1-unit rate for a pair, consulting the cache first.
func (c *Client) unitRate(ctx context.Context, from, to string) (float64, error) {
	cacheKey := "rates:pair:" + from + ":" + to

	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		if rate, err := strconv.ParseFloat(cached, 64); err == nil {
			return rate, nil
		}
	}

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)

	var out struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/latest?"+q.Encode(), &out); err != nil {
		return 0, err
	}

	rate, ok := out.Rates[to]
	if !ok {
		return 0, fmt.Errorf("%w: no rate for %s in response", ErrUpstream, to)
	}

	if err := c.cache.Set(ctx, cacheKey, strconv.FormatFloat(rate, 'f', -1, 64), c.ttl); err != nil {
		c.logger.Warn("failed to cache rate",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
	}
	return rate, nil
}

// getJSON issues a GET and decodes the JSON response into v.
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	// Frankfurter answers 404 for currency codes it does not track.
	if resp.StatusCode == http.StatusNotFound {
		return ErrUnknownCurrency
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}
