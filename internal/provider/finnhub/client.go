// Package finnhub talks to the Finnhub REST API: the symbol universe
// for an exchange and the company profile for one symbol. That is the
// whole outbound surface of the service.
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/sawpanic/stockrun/internal/domain"
)

const (
	// DefaultBaseURL is the production Finnhub endpoint.
	DefaultBaseURL = "https://finnhub.io"
	// tokenHeader carries the static API token on every call.
	tokenHeader = "X-Finnhub-Token"

	defaultTimeout = 30 * time.Second
	userAgent      = "StockRun/1.0"
)

// Config holds the static provider parameters for one process.
type Config struct {
	APIKey         string
	BaseURL        string
	Exchange       string
	MIC            string
	RequestTimeout time.Duration
}

// Client is the Finnhub market client. Stateless beyond its HTTP
// client, breaker and token; safe for arbitrary concurrent callers.
// Throttling is the warm-up pipeline's concern, not the client's.
type Client struct {
	baseURL  string
	apiKey   string
	exchange string
	mic      string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

// NewClient builds a client from config, filling unset fields with the
// deployment defaults (US exchange, NYSE MIC).
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Exchange == "" {
		cfg.Exchange = "US"
	}
	if cfg.MIC == "" {
		cfg.MIC = "XNYS"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTimeout
	}

	settings := gobreaker.Settings{
		Name:    "finnhub",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 4xx answers are permanent per-symbol conditions, not provider
		// outages; only transport errors and 5xx trip the breaker.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var statusErr *domain.StatusError
			return errors.As(err, &statusErr) && !statusErr.Retryable()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("provider circuit breaker state change")
		},
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		exchange: cfg.Exchange,
		mic:      cfg.MIC,
		client:   &http.Client{Timeout: cfg.RequestTimeout},
		breaker:  gobreaker.NewCircuitBreaker(settings),
	}
}

// ListSymbols returns the configured symbol universe, eagerly
// materialized.
func (c *Client) ListSymbols(ctx context.Context) ([]domain.Listing, error) {
	endpoint := fmt.Sprintf("%s/api/v1/stock/symbol?exchange=%s&mic=%s",
		c.baseURL, url.QueryEscape(c.exchange), url.QueryEscape(c.mic))

	start := time.Now()
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}

	var listings []domain.Listing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("list symbols: decode: %w", err)
	}

	log.Debug().
		Int("listings", len(listings)).
		Dur("duration", time.Since(start)).
		Msg("symbol universe retrieved")

	return listings, nil
}

// FetchProfile returns the company profile for one symbol. An empty
// JSON object is a valid answer and decodes to a zero Profile.
func (c *Client) FetchProfile(ctx context.Context, symbol string) (domain.Profile, error) {
	endpoint := fmt.Sprintf("%s/api/v1/stock/profile2?symbol=%s",
		c.baseURL, url.QueryEscape(domain.Canonicalize(symbol)))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetch profile %s: %w", symbol, err)
	}

	var profile domain.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return domain.Profile{}, fmt.Errorf("fetch profile %s: decode: %w", symbol, err)
	}
	return profile, nil
}

// get performs one authenticated GET through the circuit breaker and
// returns the response body. Non-2xx statuses map to
// domain.StatusError.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set(tokenHeader, c.apiKey)
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, resp.Body)
			return nil, &domain.StatusError{StatusCode: resp.StatusCode}
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
