package burn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"burnwatch/internal/domain"
	"burnwatch/pkg/amount"
)

func seriesCacheKey(windowDays int, today string) string {
	return fmt.Sprintf("series:%d:%s", windowDays, today)
}

// DailySeries assembles the burn series for the window of windowDays calendar
// days ending today (inclusive). Assembly is all-or-nothing: every missing
// past day in the window is collected and reported in one
// MissingHistoricalDataError, never a partial series. Fully assembled results
// are cached per (window, today) under the series TTL.
func (s *Service) DailySeries(ctx context.Context, windowDays int) (*domain.SeriesResult, error) {
	if windowDays < 1 {
		return nil, fmt.Errorf("window_days must be at least 1, got %d", windowDays)
	}

	today := s.today()
	todayKey := dayKey(today)
	cacheKey := seriesCacheKey(windowDays, todayKey)

	if p, fresh := s.cachedPayload(ctx, cacheKey, s.cfg.SeriesCacheTTL); fresh {
		var res domain.SeriesResult
		if err := json.Unmarshal([]byte(p.PayloadJSON), &res); err == nil {
			s.metrics.ObserveCache("series", true)
			res.Cached = true
			return &res, nil
		}
		slog.Warn("Discarding undecodable cached series", slog.String("key", cacheKey))
	}
	s.metrics.ObserveCache("series", false)

	meta, err := s.Meta(ctx)
	if err != nil {
		return nil, err
	}

	startDay := today.AddDate(0, 0, -(windowDays - 1))
	totalRaw := new(big.Int)
	daily := make([]domain.DailyBurn, 0, windowDays)
	var missing []string

	for d := startDay; !d.After(today); d = d.AddDate(0, 0, 1) {
		raw, err := s.EnsureDayCached(ctx, d, false)
		if err != nil {
			var miss *domain.MissingHistoricalDataError
			if errors.As(err, &miss) {
				missing = append(missing, miss.Days...)
				continue
			}
			return nil, err
		}
		totalRaw.Add(totalRaw, raw)
		daily = append(daily, domain.DailyBurn{
			Day:     dayKey(d),
			BurnRaw: raw.String(),
			Burn:    amount.Format(amount.RawToTokens(raw, meta.Decimals)),
		})
	}
	if len(missing) > 0 {
		return nil, domain.NewMissingHistoricalData(missing)
	}

	var todayUpdated int64
	if rec, err := s.store.GetDaily(ctx, todayKey); err == nil && rec != nil {
		todayUpdated = rec.UpdatedAt
	}

	res := &domain.SeriesResult{
		Token:                 s.tokenInfo(meta),
		WindowDays:            windowDays,
		StartDay:              dayKey(startDay),
		EndDay:                todayKey,
		TotalBurnRaw:          totalRaw.String(),
		TotalBurn:             amount.Format(amount.RawToTokens(totalRaw, meta.Decimals)),
		Daily:                 daily,
		DataSource:            domain.DataSource,
		TodayLastUpdatedEpoch: todayUpdated,
	}
	s.storePayload(ctx, cacheKey, res)
	return res, nil
}

// BackfillRange force-populates every day in [start, end] (UTC days,
// inclusive) regardless of the historical-fetch policy. It is the
// administrative path that fills the gaps DailySeries refuses to paper over.
// Days are processed in order; the first failure aborts so a rerun can resume
// from where it stopped.
func (s *Service) BackfillRange(ctx context.Context, start, end time.Time) (int, error) {
	startDay, _ := dayBounds(start)
	endDay, _ := dayBounds(end)
	if endDay.Before(startDay) {
		return 0, fmt.Errorf("backfill range end %s precedes start %s", dayKey(endDay), dayKey(startDay))
	}

	done := 0
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		raw, err := s.EnsureDayCached(ctx, d, true)
		if err != nil {
			return done, fmt.Errorf("backfill stopped at %s: %w", dayKey(d), err)
		}
		slog.Info("Backfilled day",
			slog.String("day", dayKey(d)),
			slog.String("burn_raw", raw.String()))
		done++
	}
	return done, nil
}
