package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/idhash"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPMarketSource fetches token profiles and market stats from an HTTP
// market-data API. Implements TokenSource and SnapshotSource.
type HTTPMarketSource struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// MarketSourceOption configures HTTPMarketSource.
type MarketSourceOption func(*HTTPMarketSource)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) MarketSourceOption {
	return func(s *HTTPMarketSource) {
		s.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) MarketSourceOption {
	return func(s *HTTPMarketSource) {
		s.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) MarketSourceOption {
	return func(s *HTTPMarketSource) {
		s.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) MarketSourceOption {
	return func(s *HTTPMarketSource) {
		s.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) MarketSourceOption {
	return func(s *HTTPMarketSource) {
		s.client = client
	}
}

// NewHTTPMarketSource creates a new market-data API client.
func NewHTTPMarketSource(baseURL string, opts ...MarketSourceOption) *HTTPMarketSource {
	s := &HTTPMarketSource{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile-time interface checks.
var (
	_ TokenSource    = (*HTTPMarketSource)(nil)
	_ SnapshotSource = (*HTTPMarketSource)(nil)
)

// tokenProfile is the API wire format for a token profile.
type tokenProfile struct {
	Mint         string   `json:"mint"`
	Name         string   `json:"name"`
	Symbol       string   `json:"symbol"`
	Keywords     []string `json:"keywords,omitempty"`
	MarketCap    float64  `json:"marketCap"`
	Volume24h    float64  `json:"volume24h"`
	DiscoveredAt int64    `json:"discoveredAt"`
}

type tokensResponse struct {
	Tokens []tokenProfile `json:"tokens"`
}

// marketStat is the API wire format for a market data point.
type marketStat struct {
	Mint      string  `json:"mint"`
	Timestamp int64   `json:"timestamp"`
	PriceUSD  float64 `json:"priceUsd"`
	MarketCap float64 `json:"marketCap"`
	Volume24h float64 `json:"volume24h"`
}

type marketResponse struct {
	Snapshots []marketStat `json:"snapshots"`
}

// FetchTokens returns token profiles updated within [from, to] milliseconds.
// Profiles with malformed mint addresses are skipped.
func (s *HTTPMarketSource) FetchTokens(ctx context.Context, from, to int64) ([]*domain.TokenRecord, error) {
	query := url.Values{}
	query.Set("from", strconv.FormatInt(from, 10))
	query.Set("to", strconv.FormatInt(to, 10))

	var resp tokensResponse
	if err := s.get(ctx, "/v1/tokens?"+query.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetch tokens: %w", err)
	}

	now := time.Now().UnixMilli()
	var records []*domain.TokenRecord
	for _, p := range resp.Tokens {
		if ValidateMint(p.Mint) != nil {
			continue
		}
		records = append(records, &domain.TokenRecord{
			TokenID:      idhash.ComputeTokenID(p.Mint),
			Mint:         p.Mint,
			Name:         p.Name,
			Symbol:       p.Symbol,
			Keywords:     p.Keywords,
			MarketCap:    p.MarketCap,
			Volume24h:    p.Volume24h,
			DiscoveredAt: p.DiscoveredAt,
			UpdatedAt:    now,
		})
	}
	return records, nil
}

// FetchSnapshots returns the latest market data point for each given mint.
func (s *HTTPMarketSource) FetchSnapshots(ctx context.Context, mints []string) ([]*domain.MarketSnapshot, error) {
	if len(mints) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("mints", strings.Join(mints, ","))

	var resp marketResponse
	if err := s.get(ctx, "/v1/market?"+query.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetch snapshots: %w", err)
	}

	snapshots := make([]*domain.MarketSnapshot, 0, len(resp.Snapshots))
	for _, m := range resp.Snapshots {
		snapshots = append(snapshots, &domain.MarketSnapshot{
			Mint:      m.Mint,
			Timestamp: m.Timestamp,
			PriceUSD:  m.PriceUSD,
			MarketCap: m.MarketCap,
			Volume24h: m.Volume24h,
		})
	}
	return snapshots, nil
}

// get performs a GET with retries and exponential backoff.
func (s *HTTPMarketSource) get(ctx context.Context, path string, result interface{}) error {
	delay := s.retryDelay
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * s.backoffMult)
			if delay > s.maxDelay {
				delay = s.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			continue
		}

		if err := json.Unmarshal(body, result); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
