package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"burnwatch/internal/domain"
)

// Query parameter defaults. Window and horizon upper bounds come from
// configuration.
const (
	defaultWindowDays  = 30
	defaultHorizonDays = 365
)

type errorBody struct {
	Error       string   `json:"error"`
	Message     string   `json:"message"`
	MissingDays []string `json:"missing_days,omitempty"`
	HowToFix    string   `json:"how_to_fix,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("Failed to encode response", slog.Any("error", err))
	}
}

// writeError maps service errors onto HTTP statuses. Missing history is the
// caller's problem to fix (400 with the full day list); transient upstream
// trouble is 503; anything unexpected stays a plain 500.
func writeError(w http.ResponseWriter, err error) {
	var miss *domain.MissingHistoricalDataError
	if errors.As(err, &miss) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:       "MISSING_HISTORICAL_CACHE",
			Message:     err.Error(),
			MissingDays: miss.Days,
			HowToFix:    "run the backfill command to populate the listed days, then retry",
		})
		return
	}

	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   "CONFIGURATION_ERROR",
			Message: err.Error(),
		})
		return
	}

	if errors.Is(err, domain.ErrBalanceUnavailable) || errors.Is(err, domain.ErrPriceUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error:   "UPSTREAM_DATA_UNAVAILABLE",
			Message: err.Error(),
		})
		return
	}

	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) && temp.Temporary() {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error:   "UPSTREAM_UNAVAILABLE",
			Message: err.Error(),
		})
		return
	}

	slog.Error("Request failed", slog.Any("error", err))
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Error:   "INTERNAL_ERROR",
		Message: err.Error(),
	})
}

func writeParamError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "INVALID_PARAMETER", Message: msg})
}

// intParam parses a bounded integer query parameter, using def when absent.
func intParam(r *http.Request, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	if v < 1 || v > max {
		return 0, fmt.Errorf("%s must be between 1 and %d, got %d", name, max, v)
	}
	return v, nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    s.cfg.AppName,
		"version": s.cfg.AppVersion,
		"endpoints": []string{
			"/health",
			"/token/meta",
			"/token/metrics",
			"/burn/summary",
			"/burn/series?window_days=N",
			"/burn/projection?window_days=N&horizon_days=M&model=mean|regression",
			"/metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTokenMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := s.api.Meta(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleTokenMetrics(w http.ResponseWriter, r *http.Request) {
	res, err := s.api.TokenMetrics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res, err := s.api.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	window, err := intParam(r, "window_days", defaultWindowDays, s.cfg.MaxWindowDays)
	if err != nil {
		writeParamError(w, err.Error())
		return
	}
	res, err := s.api.DailySeries(r.Context(), window)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	window, err := intParam(r, "window_days", defaultWindowDays, s.cfg.MaxWindowDays)
	if err != nil {
		writeParamError(w, err.Error())
		return
	}
	horizon, err := intParam(r, "horizon_days", defaultHorizonDays, s.cfg.MaxHorizonDays)
	if err != nil {
		writeParamError(w, err.Error())
		return
	}
	model := r.URL.Query().Get("model")
	if model == "" {
		model = domain.ModelMean
	}
	if model != domain.ModelMean && model != domain.ModelRegression {
		writeParamError(w, fmt.Sprintf("model must be %q or %q, got %q",
			domain.ModelMean, domain.ModelRegression, model))
		return
	}

	res, err := s.api.Projection(r.Context(), window, horizon, model)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
