// Package moralis is the upstream data provider client: token metadata,
// price, wallet balance and paginated ERC-20 transfer ingestion. Every
// request goes through the same rate-limit, retry and circuit-breaker path.
package moralis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"burnwatch/internal/domain"
	"burnwatch/internal/infra"
	"burnwatch/internal/observability"
)

// DefaultBaseURL is the Moralis deep-index API root.
const DefaultBaseURL = "https://deep-index.moralis.io/api/v2.2"

// maxAttempts bounds retries per request: 429 and 5xx are retried with
// backoff, anything else fails immediately.
const maxAttempts = 5

// Config holds the client settings, bound to one token and its burn sink.
type Config struct {
	APIKey       string
	BaseURL      string
	Chain        string
	TokenAddress string
	DeadAddress  string
	Timeout      time.Duration
	PageLimit    int
	MaxPages     int
}

// Client is the Moralis REST client. It holds no mutable state beyond the
// breaker; methods are safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *infra.RateLimiter
	breaker    *infra.CircuitBreaker
	metrics    *observability.Metrics

	// sleep is swapped out in tests to count backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Moralis client. limiter and metrics may be nil.
func NewClient(cfg Config, limiter *infra.RateLimiter, metrics *observability.Metrics) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("moralis: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Chain == "" {
		cfg.Chain = "bsc"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 200
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		breaker:    infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("moralis")),
		metrics:    metrics,
		sleep:      sleepCtx,
	}, nil
}

// TokenMetadata fetches the token's name, symbol and decimals. Returns
// (nil, nil) when the provider knows nothing about the token; the caller
// falls back to configured defaults.
func (c *Client) TokenMetadata(ctx context.Context) (*domain.TokenMeta, error) {
	params := url.Values{
		"chain":     {c.cfg.Chain},
		"addresses": {c.cfg.TokenAddress},
	}

	var items []metadataItem
	if err := c.getJSON(ctx, "/erc20/metadata", params, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	decimals := int64(18)
	if items[0].Decimals != "" {
		if d, err := items[0].Decimals.Int64(); err == nil {
			decimals = d
		}
	}

	return &domain.TokenMeta{
		Name:     items[0].Name,
		Symbol:   items[0].Symbol,
		Decimals: int32(decimals),
	}, nil
}

// TokenPriceUSD fetches the token's USD price. ok is false when the
// provider has no price for the token.
func (c *Client) TokenPriceUSD(ctx context.Context) (decimal.Decimal, bool, error) {
	params := url.Values{"chain": {c.cfg.Chain}}
	endpoint := "/erc20/" + c.cfg.TokenAddress + "/price"

	var resp priceResponse
	if err := c.getJSON(ctx, endpoint, params, &resp); err != nil {
		return decimal.Zero, false, err
	}
	if resp.USDPrice == "" {
		return decimal.Zero, false, nil
	}

	price, err := decimal.NewFromString(resp.USDPrice.String())
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("moralis: malformed usdPrice %q: %w", resp.USDPrice, err)
	}
	return price, true, nil
}

// WalletTokenBalance fetches a wallet's raw balance of the tracked token.
// ok is false when the wallet holds no recorded balance.
func (c *Client) WalletTokenBalance(ctx context.Context, wallet string) (*big.Int, bool, error) {
	params := url.Values{
		"chain":           {c.cfg.Chain},
		"token_addresses": {c.cfg.TokenAddress},
	}
	endpoint := "/" + wallet + "/erc20"

	var items []balanceItem
	if err := c.getJSON(ctx, endpoint, params, &items); err != nil {
		return nil, false, err
	}
	if len(items) == 0 || items[0].Balance == "" {
		return nil, false, nil
	}

	bal, ok := new(big.Int).SetString(items[0].Balance, 10)
	if !ok {
		return nil, false, fmt.Errorf("moralis: malformed balance %q", items[0].Balance)
	}
	return bal, true, nil
}

// getJSON performs one logical GET with the full retry policy: up to
// maxAttempts tries, 429 waits Retry-After (or capped exponential backoff),
// 5xx and transport errors wait a capped linear backoff, any other
// non-success status is fatal immediately.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	if !c.breaker.Allow() {
		return ErrUpstreamUnavailable
	}

	reqURL := c.cfg.BaseURL + endpoint + "?" + params.Encode()

	var lastStatus int
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.limiter != nil {
			c.limiter.Wait()
		}

		status, retryAfter, body, err := c.doRequest(ctx, reqURL)
		switch {
		case err != nil:
			// Transport failure or timeout: same treatment as a 5xx.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastStatus = 0
			slog.Warn("Moralis request failed, retrying",
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			c.metrics.ObserveRetry(endpoint, "transport")
			if attempt < maxAttempts {
				if serr := c.sleep(ctx, infra.ServerErrorDelay(attempt)); serr != nil {
					return serr
				}
			}

		case status == http.StatusTooManyRequests:
			lastStatus = status
			slog.Warn("Moralis rate limited, backing off",
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt),
				slog.String("retry_after", retryAfter))
			c.metrics.ObserveRetry(endpoint, "rate_limit")
			if attempt < maxAttempts {
				if serr := c.sleep(ctx, infra.RateLimitDelay(attempt, retryAfter)); serr != nil {
					return serr
				}
			}

		case status >= 500 && status < 600:
			lastStatus = status
			slog.Warn("Moralis server error, retrying",
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt),
				slog.Int("status", status))
			c.metrics.ObserveRetry(endpoint, "server_error")
			if attempt < maxAttempts {
				if serr := c.sleep(ctx, infra.ServerErrorDelay(attempt)); serr != nil {
					return serr
				}
			}

		case status >= 200 && status < 300:
			c.breaker.RecordSuccess()
			c.metrics.ObserveUpstream(endpoint, "ok")
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("moralis: %s: malformed response: %w", endpoint, err)
			}
			return nil

		default:
			// Client error other than 429: the request itself is wrong,
			// retrying cannot help.
			c.breaker.RecordFailure()
			c.metrics.ObserveUpstream(endpoint, "fatal")
			return &UpstreamError{Endpoint: endpoint, StatusCode: status}
		}
	}

	c.breaker.RecordFailure()
	c.metrics.ObserveUpstream(endpoint, "exhausted")
	return &UpstreamError{Endpoint: endpoint, StatusCode: lastStatus, Exhausted: true}
}

func (c *Client) doRequest(ctx context.Context, reqURL string) (status int, retryAfter string, body []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, "", nil, err
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", nil, err
	}

	return resp.StatusCode, resp.Header.Get("Retry-After"), body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
