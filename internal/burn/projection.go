package burn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"burnwatch/internal/domain"
	"burnwatch/pkg/amount"
)

func projectionCacheKey(model string, windowDays, horizonDays int, today string) string {
	return fmt.Sprintf("projection:%s:%d:%d:%s", model, windowDays, horizonDays, today)
}

// tokenomics renders a burned/remaining supply snapshot against maxSupply.
func tokenomics(burned, maxSupply decimal.Decimal) domain.Tokenomics {
	remaining := maxSupply.Sub(burned)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return domain.Tokenomics{
		BurnedTokens:    amount.Format(burned),
		BurnedT:         amount.Format(amount.ToTrillions(burned)),
		BurnedPct:       amount.Format(amount.Percent(burned, maxSupply)),
		RemainingTokens: amount.Format(remaining),
		RemainingT:      amount.Format(amount.ToTrillions(remaining)),
	}
}

// Projection estimates future burn over horizonDays from the last windowDays
// of history.
//
// The mean model multiplies the window's average daily burn by the horizon.
// The regression model fits an OLS line to the cumulative burn and uses its
// slope as the daily rate; a degenerate fit (negative or non-finite slope)
// falls back to the mean, and the result says so via its Model field. The
// projected burned total is clamped to max supply: a projection never burns
// more tokens than exist.
func (s *Service) Projection(ctx context.Context, windowDays, horizonDays int, model string) (*domain.ProjectionResult, error) {
	if model != domain.ModelMean && model != domain.ModelRegression {
		return nil, fmt.Errorf("unknown projection model %q", model)
	}
	if windowDays < 1 {
		return nil, fmt.Errorf("window_days must be at least 1, got %d", windowDays)
	}
	if horizonDays < 1 {
		return nil, fmt.Errorf("horizon_days must be at least 1, got %d", horizonDays)
	}

	cacheKey := projectionCacheKey(model, windowDays, horizonDays, dayKey(s.today()))
	if p, fresh := s.cachedPayload(ctx, cacheKey, s.cfg.SeriesCacheTTL); fresh {
		var res domain.ProjectionResult
		if err := json.Unmarshal([]byte(p.PayloadJSON), &res); err == nil {
			s.metrics.ObserveCache("projection", true)
			res.Cached = true
			return &res, nil
		}
		slog.Warn("Discarding undecodable cached projection", slog.String("key", cacheKey))
	}
	s.metrics.ObserveCache("projection", false)

	meta, err := s.Meta(ctx)
	if err != nil {
		return nil, err
	}
	series, err := s.DailySeries(ctx, windowDays)
	if err != nil {
		return nil, err
	}
	metricsRes, err := s.TokenMetrics(ctx)
	if err != nil {
		return nil, err
	}

	dailyTokens := make([]decimal.Decimal, 0, len(series.Daily))
	for _, d := range series.Daily {
		raw, ok := new(big.Int).SetString(d.BurnRaw, 10)
		if !ok {
			return nil, fmt.Errorf("corrupt burn total in series for %s: %q", d.Day, d.BurnRaw)
		}
		dailyTokens = append(dailyTokens, amount.RawToTokens(raw, meta.Decimals))
	}

	usedModel := model
	assumption := "Average daily burn over the window, held constant."
	var ratePerDay decimal.Decimal

	switch model {
	case domain.ModelMean:
		ratePerDay = amount.Mean(dailyTokens)
	case domain.ModelRegression:
		slope := olsSlope(cumulativeFloats(dailyTokens))
		if math.IsNaN(slope) || math.IsInf(slope, 0) || slope < 0 {
			usedModel = domain.ModelRegressionFallback
			ratePerDay = amount.Mean(dailyTokens)
			assumption = "Regression slope was negative or unstable; fell back to the window mean."
		} else {
			ratePerDay = decimal.NewFromFloat(slope)
			assumption = "Linear trend of cumulative burn over the window, extrapolated forward."
		}
	}

	horizonBurn := ratePerDay.Mul(decimal.NewFromInt(int64(horizonDays)))

	maxSupply := s.cfg.MaxSupplyTokens
	burnedRaw, ok := new(big.Int).SetString(metricsRes.BurnedRaw, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt burned total in token metrics: %q", metricsRes.BurnedRaw)
	}
	burnedNow := amount.RawToTokens(burnedRaw, meta.Decimals)

	burnedFuture := burnedNow.Add(horizonBurn)
	if burnedFuture.GreaterThan(maxSupply) {
		burnedFuture = maxSupply
	}

	res := &domain.ProjectionResult{
		Model:                 usedModel,
		WindowDays:            windowDays,
		HorizonDays:           horizonDays,
		BurnPerDayRaw:         amount.TokensToRaw(ratePerDay, meta.Decimals).String(),
		BurnPerDay:            amount.Format(ratePerDay),
		HorizonBurnRaw:        amount.TokensToRaw(horizonBurn, meta.Decimals).String(),
		HorizonBurn:           amount.Format(horizonBurn),
		Assumption:            assumption,
		DataSource:            domain.DataSource,
		TodayLastUpdatedEpoch: series.TodayLastUpdatedEpoch,
		Tokenomics:            tokenomics(burnedNow, maxSupply),
		TokenomicsProjected:   tokenomics(burnedFuture, maxSupply),
	}
	s.storePayload(ctx, cacheKey, res)
	return res, nil
}

// cumulativeFloats converts a daily series into its running total. Precision
// loss here is acceptable: the fit is an estimate, and served amounts are
// always rendered from decimals.
func cumulativeFloats(daily []decimal.Decimal) []float64 {
	out := make([]float64, len(daily))
	running := decimal.Zero
	for i, d := range daily {
		running = running.Add(d)
		out[i], _ = running.Float64()
	}
	return out
}
