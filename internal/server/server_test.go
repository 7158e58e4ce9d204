package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"burnwatch/internal/domain"
)

type stubAPI struct {
	meta        domain.TokenMeta
	summary     *domain.SummaryResult
	series      *domain.SeriesResult
	projection  *domain.ProjectionResult
	metrics     *domain.TokenMetricsResult
	err         error
	gotWindow   int
	gotHorizon  int
	gotModel    string
	seriesCalls int
}

func (s *stubAPI) Meta(context.Context) (domain.TokenMeta, error) {
	return s.meta, s.err
}

func (s *stubAPI) Summary(context.Context) (*domain.SummaryResult, error) {
	return s.summary, s.err
}

func (s *stubAPI) DailySeries(_ context.Context, windowDays int) (*domain.SeriesResult, error) {
	s.seriesCalls++
	s.gotWindow = windowDays
	return s.series, s.err
}

func (s *stubAPI) Projection(_ context.Context, windowDays, horizonDays int, model string) (*domain.ProjectionResult, error) {
	s.gotWindow = windowDays
	s.gotHorizon = horizonDays
	s.gotModel = model
	return s.projection, s.err
}

func (s *stubAPI) TokenMetrics(context.Context) (*domain.TokenMetricsResult, error) {
	return s.metrics, s.err
}

func newTestServer(api *stubAPI) *Server {
	return New(Config{
		Addr:           ":0",
		CORSOrigins:    []string{"https://burn.example.com"},
		MaxWindowDays:  365,
		MaxHorizonDays: 3650,
		AppName:        "burnwatch",
		AppVersion:     "test",
	}, api, nil)
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(&stubAPI{}), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRootListsEndpoints(t *testing.T) {
	rec := get(t, newTestServer(&stubAPI{}), "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "burnwatch", body["name"])
	assert.NotEmpty(t, body["endpoints"])
}

func TestSeries_PassesWindowParam(t *testing.T) {
	api := &stubAPI{series: &domain.SeriesResult{WindowDays: 7, TotalBurnRaw: "42"}}
	srv := newTestServer(api)

	rec := get(t, srv, "/burn/series?window_days=7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, api.gotWindow)

	var res domain.SeriesResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "42", res.TotalBurnRaw)
}

func TestSeries_DefaultWindow(t *testing.T) {
	api := &stubAPI{series: &domain.SeriesResult{}}
	get(t, newTestServer(api), "/burn/series")
	assert.Equal(t, defaultWindowDays, api.gotWindow)
}

func TestSeries_RejectsBadWindow(t *testing.T) {
	api := &stubAPI{series: &domain.SeriesResult{}}
	srv := newTestServer(api)

	for _, q := range []string{"window_days=0", "window_days=9999", "window_days=abc"} {
		rec := get(t, srv, "/burn/series?"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)

		var body errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "INVALID_PARAMETER", body.Error)
	}
	assert.Zero(t, api.seriesCalls, "invalid parameters must not reach the service")
}

func TestSeries_MissingHistoryIsActionable(t *testing.T) {
	api := &stubAPI{err: domain.NewMissingHistoricalData([]string{"2026-08-02", "2026-08-01"})}
	rec := get(t, newTestServer(api), "/burn/series?window_days=5")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "MISSING_HISTORICAL_CACHE", body.Error)
	assert.Equal(t, []string{"2026-08-01", "2026-08-02"}, body.MissingDays)
	assert.NotEmpty(t, body.HowToFix)
}

func TestProjection_PassesParams(t *testing.T) {
	api := &stubAPI{projection: &domain.ProjectionResult{Model: domain.ModelRegression}}
	rec := get(t, newTestServer(api), "/burn/projection?window_days=14&horizon_days=90&model=regression")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 14, api.gotWindow)
	assert.Equal(t, 90, api.gotHorizon)
	assert.Equal(t, domain.ModelRegression, api.gotModel)
}

func TestProjection_DefaultsToMean(t *testing.T) {
	api := &stubAPI{projection: &domain.ProjectionResult{}}
	get(t, newTestServer(api), "/burn/projection")
	assert.Equal(t, domain.ModelMean, api.gotModel)
	assert.Equal(t, defaultWindowDays, api.gotWindow)
	assert.Equal(t, defaultHorizonDays, api.gotHorizon)
}

func TestProjection_RejectsUnknownModel(t *testing.T) {
	rec := get(t, newTestServer(&stubAPI{}), "/burn/projection?model=prophet")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenMetrics_UnavailableUpstream(t *testing.T) {
	api := &stubAPI{err: domain.ErrPriceUnavailable}
	rec := get(t, newTestServer(api), "/token/metrics")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UPSTREAM_DATA_UNAVAILABLE", body.Error)
}

func TestTokenMetrics_ConfigurationError(t *testing.T) {
	api := &stubAPI{err: &domain.ConfigurationError{Setting: "token.max_supply_tokens", Reason: "missing"}}
	rec := get(t, newTestServer(api), "/token/metrics")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CONFIGURATION_ERROR", body.Error)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	api := &stubAPI{summary: &domain.SummaryResult{}}
	srv := newTestServer(api)

	req := httptest.NewRequest(http.MethodGet, "/burn/summary", nil)
	req.Header.Set("Origin", "https://burn.example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "https://burn.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_UnknownOriginNotEchoed(t *testing.T) {
	api := &stubAPI{summary: &domain.SummaryResult{}}
	srv := newTestServer(api)

	req := httptest.NewRequest(http.MethodGet, "/burn/summary", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	srv := newTestServer(&stubAPI{})

	req := httptest.NewRequest(http.MethodOptions, "/burn/summary", nil)
	req.Header.Set("Origin", "https://burn.example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}
