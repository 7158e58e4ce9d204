package moralis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) (*Client, *[]time.Duration) {
	t.Helper()

	c, err := NewClient(Config{
		APIKey:       "test-key",
		BaseURL:      baseURL,
		Chain:        "bsc",
		TokenAddress: "0xToKeN",
		DeadAddress:  "0x000000000000000000000000000000000000dEaD",
		Timeout:      5 * time.Second,
		PageLimit:    100,
		MaxPages:     200,
	}, nil, nil)
	require.NoError(t, err)

	// Count backoff waits instead of actually sleeping.
	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return c, &sleeps
}

func TestClient_RetriesRateLimitThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode([]metadataItem{{Name: "Token", Symbol: "TKN", Decimals: "18"}})
	}))
	defer srv.Close()

	c, sleeps := newTestClient(t, srv.URL)

	meta, err := c.TokenMetadata(context.Background())
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "TKN", meta.Symbol)
	assert.Equal(t, int32(18), meta.Decimals)

	assert.Equal(t, 3, calls)
	assert.LessOrEqual(t, len(*sleeps), 2)
}

func TestClient_HonorsRetryAfterHeader(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode([]metadataItem{{Name: "Token", Symbol: "TKN", Decimals: "18"}})
	}))
	defer srv.Close()

	c, sleeps := newTestClient(t, srv.URL)

	_, err := c.TokenMetadata(context.Background())
	require.NoError(t, err)
	require.Len(t, *sleeps, 1)
	assert.Equal(t, 2*time.Second, (*sleeps)[0])
}

func TestClient_ServerErrorsRetryThenExhaust(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(t, srv.URL)

	_, err := c.TokenMetadata(context.Background())
	require.Error(t, err)

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.True(t, upErr.Exhausted)
	assert.True(t, upErr.Temporary())
	assert.Equal(t, maxAttempts, calls)
	assert.Equal(t, maxAttempts-1, len(*sleeps))
}

func TestClient_FatalStatusNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(t, srv.URL)

	_, err := c.TokenMetadata(context.Background())
	require.Error(t, err)

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.False(t, upErr.Exhausted)
	assert.False(t, upErr.Temporary())
	assert.Equal(t, 1, calls)
	assert.Empty(t, *sleeps)
}

func TestClient_TokenMetadataAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]metadataItem{})
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)

	meta, err := c.TokenMetadata(context.Background())
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestClient_TokenPriceUSD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"usdPrice": 0.0000025}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)

	price, ok, err := c.TokenPriceUSD(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.0000025", price.String())
}

func TestClient_TokenPriceUSDAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)

	_, ok, err := c.TokenPriceUSD(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_WalletTokenBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]balanceItem{{TokenAddress: "0xToKeN", Balance: "123456789012345678901234567890"}})
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)

	bal, ok, err := c.WalletTokenBalance(context.Background(), "0xdead")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "123456789012345678901234567890", bal.String())
}
