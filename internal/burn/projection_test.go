package burn

import (
	"context"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"burnwatch/internal/domain"
)

// seedWindow populates the last len(totals) days ending today with the given
// raw totals, today's value coming from the upstream fake.
func seedWindow(t *testing.T, svc *Service, src *fakeSource, totals ...int64) {
	t.Helper()
	ctx := context.Background()
	today := svc.today()
	for i, v := range totals {
		d := today.AddDate(0, 0, -(len(totals) - 1 - i))
		if d.Equal(today) {
			src.dayTotals[dayKey(d)] = big.NewInt(v)
			continue
		}
		require.NoError(t, svc.store.UpsertDaily(ctx, dayKey(d), big.NewInt(v).String(), 1))
	}
}

func TestProjection_MeanModel(t *testing.T) {
	src := newFakeSource()
	svc := newTestService(t, src, testConfig())
	seedWindow(t, svc, src, 10, 20, 30)

	res, err := svc.Projection(context.Background(), 3, 10, domain.ModelMean)
	require.NoError(t, err)
	assert.Equal(t, domain.ModelMean, res.Model)
	assert.Equal(t, "20", res.BurnPerDay)
	assert.Equal(t, "200", res.HorizonBurn)
	assert.Equal(t, "200", res.HorizonBurnRaw)
	assert.False(t, res.Cached)
}

func TestProjection_RegressionOnSteadyBurn(t *testing.T) {
	src := newFakeSource()
	svc := newTestService(t, src, testConfig())
	// Constant 10/day: cumulative 10,20,30,40 has slope exactly 10.
	seedWindow(t, svc, src, 10, 10, 10, 10)

	res, err := svc.Projection(context.Background(), 4, 5, domain.ModelRegression)
	require.NoError(t, err)
	assert.Equal(t, domain.ModelRegression, res.Model)
	assert.Equal(t, "10", res.BurnPerDay)
	assert.Equal(t, "50", res.HorizonBurn)
}

func TestProjection_RegressionFallsBackToMean(t *testing.T) {
	src := newFakeSource()
	svc := newTestService(t, src, testConfig())
	// A shrinking cumulative total (corrective negative entries) drives the
	// slope negative, which the model refuses to extrapolate.
	seedWindow(t, svc, src, -10, -10, -10)

	res, err := svc.Projection(context.Background(), 3, 2, domain.ModelRegression)
	require.NoError(t, err)
	assert.Equal(t, domain.ModelRegressionFallback, res.Model)
	assert.Equal(t, "-10", res.BurnPerDay)
}

func TestProjection_ClampsToMaxSupply(t *testing.T) {
	src := newFakeSource()
	src.balance = big.NewInt(9000)
	svc := newTestService(t, src, testConfig())
	// 500/day over 10 days projects past the 10000 max supply.
	seedWindow(t, svc, src, 500, 500, 500)

	res, err := svc.Projection(context.Background(), 3, 10, domain.ModelMean)
	require.NoError(t, err)
	assert.Equal(t, "10000", res.TokenomicsProjected.BurnedTokens)
	assert.Equal(t, "0", res.TokenomicsProjected.RemainingTokens)
	assert.Equal(t, "100", res.TokenomicsProjected.BurnedPct)
	// The unclamped snapshot stays as-is.
	assert.Equal(t, "9000", res.Tokenomics.BurnedTokens)
	assert.Equal(t, "90", res.Tokenomics.BurnedPct)
}

func TestProjection_CachesPerParameters(t *testing.T) {
	src := newFakeSource()
	svc := newTestService(t, src, testConfig())
	seedWindow(t, svc, src, 10, 20, 30)
	ctx := context.Background()

	res, err := svc.Projection(ctx, 3, 10, domain.ModelMean)
	require.NoError(t, err)
	assert.False(t, res.Cached)

	res2, err := svc.Projection(ctx, 3, 10, domain.ModelMean)
	require.NoError(t, err)
	assert.True(t, res2.Cached)
	assert.Equal(t, res.HorizonBurn, res2.HorizonBurn)

	// A different horizon is a different cache entry.
	res3, err := svc.Projection(ctx, 3, 20, domain.ModelMean)
	require.NoError(t, err)
	assert.False(t, res3.Cached)
	assert.Equal(t, "400", res3.HorizonBurn)
}

func TestProjection_PropagatesMissingHistory(t *testing.T) {
	src := newFakeSource()
	svc := newTestService(t, src, testConfig())

	_, err := svc.Projection(context.Background(), 7, 30, domain.ModelMean)

	var miss *domain.MissingHistoricalDataError
	require.ErrorAs(t, err, &miss)
	assert.Len(t, miss.Days, 6)
}

func TestProjection_RejectsUnknownModel(t *testing.T) {
	svc := newTestService(t, newFakeSource(), testConfig())
	_, err := svc.Projection(context.Background(), 3, 10, "prophet")
	require.Error(t, err)
}

func TestTokenomicsSnapshot(t *testing.T) {
	max := decimal.RequireFromString("1000000000000000")
	burned := decimal.RequireFromString("250000000000000")

	got := tokenomics(burned, max)
	assert.Equal(t, "250000000000000", got.BurnedTokens)
	assert.Equal(t, "250", got.BurnedT)
	assert.Equal(t, "25", got.BurnedPct)
	assert.Equal(t, "750000000000000", got.RemainingTokens)
	assert.Equal(t, "750", got.RemainingT)
}
