// Package burn implements the burn ledger core: the per-day cache policy,
// series aggregation over a day window, token metrics and forward burn
// projections. The service holds no persistent state of its own; it is a
// layer over the cache store plus wall-clock time, calling upstream only
// when the cache policy demands it.
package burn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"burnwatch/internal/domain"
	"burnwatch/internal/observability"
	"burnwatch/pkg/amount"
)

// TransferSource is the upstream data provider boundary: transfer ingestion
// plus token metadata, price and balance lookups.
type TransferSource interface {
	DailyBurnTotal(ctx context.Context, dayStart, dayEnd time.Time) (*big.Int, error)
	TokenMetadata(ctx context.Context) (*domain.TokenMeta, error)
	TokenPriceUSD(ctx context.Context) (decimal.Decimal, bool, error)
	WalletTokenBalance(ctx context.Context, wallet string) (*big.Int, bool, error)
}

// Store is the persistence boundary: per-day burn records and keyed derived
// payloads, both timestamped.
type Store interface {
	GetDaily(ctx context.Context, day string) (*domain.DailyBurnRecord, error)
	UpsertDaily(ctx context.Context, day, burnRaw string, updatedAt int64) error
	GetPayload(ctx context.Context, key string) (*domain.CachedPayload, error)
	UpsertPayload(ctx context.Context, key, payloadJSON string, updatedAt int64) error
}

// Config holds the service settings.
type Config struct {
	TokenAddress     string
	DeadAddress      string
	DecimalsFallback int32
	// CacheTTL bounds how long today's total and token metrics are served
	// without re-fetching. Past days never expire.
	CacheTTL time.Duration
	// SeriesCacheTTL bounds reuse of assembled series/projection payloads.
	SeriesCacheTTL time.Duration
	MaxSupplyTokens decimal.Decimal
	// AllowHistoricalFetch lets read paths fetch missing past days. Off in
	// normal serving: gaps must be filled by an explicit backfill.
	AllowHistoricalFetch bool
}

// Service is the burn ledger service. Safe for concurrent use.
type Service struct {
	source  TransferSource
	store   Store
	cfg     Config
	metrics *observability.Metrics

	metaGroup singleflight.Group
	metaMu    sync.RWMutex
	meta      *domain.TokenMeta

	// now is swapped out in tests to pin the clock.
	now func() time.Time
}

// NewService creates the burn service. metrics may be nil.
func NewService(source TransferSource, store Store, cfg Config, metrics *observability.Metrics) *Service {
	return &Service{
		source:  source,
		store:   store,
		cfg:     cfg,
		metrics: metrics,
		now:     time.Now,
	}
}

// today returns the current UTC calendar day at midnight.
func (s *Service) today() time.Time {
	n := s.now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(day time.Time) string {
	return day.UTC().Format(domain.DayFormat)
}

// dayBounds returns the half-open UTC interval [start, end) of a day.
func dayBounds(day time.Time) (start, end time.Time) {
	start = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Meta returns the token metadata, fetched once per process lifetime. A
// provider that knows nothing about the token yields the configured decimals
// fallback with empty name/symbol, never an error. Concurrent first callers
// share a single upstream fetch.
func (s *Service) Meta(ctx context.Context) (domain.TokenMeta, error) {
	s.metaMu.RLock()
	cached := s.meta
	s.metaMu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	v, err, _ := s.metaGroup.Do("meta", func() (any, error) {
		meta, err := s.source.TokenMetadata(ctx)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			meta = &domain.TokenMeta{Decimals: s.cfg.DecimalsFallback}
			slog.Warn("Token metadata unavailable upstream, using configured fallback",
				slog.Int("decimals", int(s.cfg.DecimalsFallback)))
		}
		s.metaMu.Lock()
		s.meta = meta
		s.metaMu.Unlock()
		return meta, nil
	})
	if err != nil {
		return domain.TokenMeta{}, err
	}
	return *(v.(*domain.TokenMeta)), nil
}

// tokenInfo assembles the token identity block served on every payload.
func (s *Service) tokenInfo(meta domain.TokenMeta) domain.TokenInfo {
	return domain.TokenInfo{
		Address:     s.cfg.TokenAddress,
		Name:        meta.Name,
		Symbol:      meta.Symbol,
		Decimals:    meta.Decimals,
		DeadAddress: s.cfg.DeadAddress,
	}
}

// EnsureDayCached resolves one day's burn total through the cache policy:
//
//   - past day, cached: served as-is forever (history is immutable), unless
//     forceRefresh overrides for an administrative backfill
//   - past day, absent: MissingHistoricalDataError unless forceRefresh or
//     historical fetch is explicitly allowed
//   - today, cached: served while younger than the TTL
//   - today, absent or expired: fetched and stored
func (s *Service) EnsureDayCached(ctx context.Context, day time.Time, forceRefresh bool) (*big.Int, error) {
	key := dayKey(day)
	rec, err := s.store.GetDaily(ctx, key)
	if err != nil {
		return nil, err
	}

	isToday := key == dayKey(s.today())

	if rec == nil {
		if !isToday && !forceRefresh && !s.cfg.AllowHistoricalFetch {
			return nil, domain.NewMissingHistoricalData([]string{key})
		}
		return s.fetchAndStore(ctx, day)
	}

	age := s.now().Unix() - rec.UpdatedAt
	if isToday && (age > int64(s.cfg.CacheTTL/time.Second) || forceRefresh) {
		return s.fetchAndStore(ctx, day)
	}
	if forceRefresh {
		return s.fetchAndStore(ctx, day)
	}

	raw, ok := new(big.Int).SetString(rec.BurnRaw, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt cached burn total for %s: %q", key, rec.BurnRaw)
	}
	return raw, nil
}

// fetchAndStore computes a day's total from upstream transfers and persists
// it. Nothing is written on failure: partial-day totals never reach the
// store.
func (s *Service) fetchAndStore(ctx context.Context, day time.Time) (*big.Int, error) {
	start, end := dayBounds(day)
	total, err := s.source.DailyBurnTotal(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpsertDaily(ctx, dayKey(day), total.String(), s.now().Unix()); err != nil {
		return nil, err
	}
	slog.Debug("Cached daily burn total",
		slog.String("day", dayKey(day)),
		slog.String("burn_raw", total.String()))
	return total, nil
}

// Summary returns yesterday's and today's burn with today's last-update
// time.
func (s *Service) Summary(ctx context.Context) (*domain.SummaryResult, error) {
	meta, err := s.Meta(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	yesterday := today.AddDate(0, 0, -1)

	yRaw, err := s.EnsureDayCached(ctx, yesterday, false)
	if err != nil {
		return nil, err
	}
	tRaw, err := s.EnsureDayCached(ctx, today, false)
	if err != nil {
		return nil, err
	}

	var todayUpdated int64
	if rec, err := s.store.GetDaily(ctx, dayKey(today)); err == nil && rec != nil {
		todayUpdated = rec.UpdatedAt
	}

	ttlMinutes := int(s.cfg.CacheTTL / time.Minute)
	return &domain.SummaryResult{
		Token: s.tokenInfo(meta),
		Yesterday: domain.SummaryDay{
			Day:     dayKey(yesterday),
			BurnRaw: yRaw.String(),
			Burn:    amount.Format(amount.RawToTokens(yRaw, meta.Decimals)),
			Label:   "Yesterday X tokens were burned",
		},
		Today: domain.SummaryDay{
			Day:              dayKey(today),
			BurnRaw:          tRaw.String(),
			Burn:             amount.Format(amount.RawToTokens(tRaw, meta.Decimals)),
			Label:            fmt.Sprintf("Today X tokens have been burned (updated every %d minutes)", ttlMinutes),
			LastUpdatedEpoch: todayUpdated,
		},
		DataSource: domain.DataSource,
	}, nil
}

// cachedPayload returns a stored payload and whether it is still fresh
// under ttl. Store read failures count as misses.
func (s *Service) cachedPayload(ctx context.Context, key string, ttl time.Duration) (*domain.CachedPayload, bool) {
	p, err := s.store.GetPayload(ctx, key)
	if err != nil {
		slog.Warn("Payload cache read failed", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	if p == nil {
		return nil, false
	}
	if s.now().Unix()-p.UpdatedAt > int64(ttl/time.Second) {
		return nil, false
	}
	return p, true
}

// storePayload serializes and persists a derived payload. Failures are
// logged, not returned: the computed result is still valid for the caller.
func (s *Service) storePayload(ctx context.Context, key string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("Payload cache marshal failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := s.store.UpsertPayload(ctx, key, string(data), s.now().Unix()); err != nil {
		slog.Warn("Payload cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}
