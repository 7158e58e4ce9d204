package burn

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shopspring/decimal"

	"burnwatch/internal/domain"
	"burnwatch/pkg/amount"
)

// tokenMetricsKey caches the metrics aggregate. It has no parameters, so one
// key covers all callers.
const tokenMetricsKey = "token_metrics"

// TokenMetrics returns the supply-level aggregate: burned total from the dead
// wallet's current balance, remaining supply against the configured max, and
// the USD price. Cached under the short TTL. An upstream that cannot produce
// a balance or a price makes the whole aggregate unavailable; there are no
// partial metrics.
func (s *Service) TokenMetrics(ctx context.Context) (*domain.TokenMetricsResult, error) {
	if p, fresh := s.cachedPayload(ctx, tokenMetricsKey, s.cfg.CacheTTL); fresh {
		var res domain.TokenMetricsResult
		if err := json.Unmarshal([]byte(p.PayloadJSON), &res); err == nil {
			s.metrics.ObserveCache("token_metrics", true)
			return &res, nil
		}
		slog.Warn("Discarding undecodable cached token metrics")
	}
	s.metrics.ObserveCache("token_metrics", false)

	maxSupply := s.cfg.MaxSupplyTokens
	if maxSupply.LessThanOrEqual(decimal.Zero) {
		return nil, &domain.ConfigurationError{
			Setting: "token.max_supply_tokens",
			Reason:  "must be a positive token amount",
		}
	}

	meta, err := s.Meta(ctx)
	if err != nil {
		return nil, err
	}

	bal, ok, err := s.source.WalletTokenBalance(ctx, s.cfg.DeadAddress)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrBalanceUnavailable
	}

	price, ok, err := s.source.TokenPriceUSD(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPriceUnavailable
	}

	burned := amount.RawToTokens(bal, meta.Decimals)
	remaining := maxSupply.Sub(burned)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	res := &domain.TokenMetricsResult{
		Token:            s.tokenInfo(meta),
		MaxSupplyTokens:  amount.Format(maxSupply),
		MaxSupplyT:       amount.Format(amount.ToTrillions(maxSupply)),
		BurnedRaw:        bal.String(),
		BurnedTokens:     amount.Format(burned),
		BurnedT:          amount.Format(amount.ToTrillions(burned)),
		BurnedPct:        amount.Format(amount.Percent(burned, maxSupply)),
		RemainingTokens:  amount.Format(remaining),
		RemainingT:       amount.Format(amount.ToTrillions(remaining)),
		PriceUSD:         price.String(),
		DataSource:       domain.DataSource,
		LastUpdatedEpoch: s.now().Unix(),
	}
	s.storePayload(ctx, tokenMetricsKey, res)
	return res, nil
}
