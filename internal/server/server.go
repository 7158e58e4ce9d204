// Package server exposes the burn ledger over HTTP: token identity and
// metrics, the yesterday/today summary, the windowed series and forward
// projections, plus health and Prometheus scrape endpoints.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"burnwatch/internal/domain"
	"burnwatch/internal/observability"
)

// BurnAPI is the service surface the HTTP layer serves. Satisfied by
// *burn.Service; tests substitute a stub.
type BurnAPI interface {
	Meta(ctx context.Context) (domain.TokenMeta, error)
	Summary(ctx context.Context) (*domain.SummaryResult, error)
	DailySeries(ctx context.Context, windowDays int) (*domain.SeriesResult, error)
	Projection(ctx context.Context, windowDays, horizonDays int, model string) (*domain.ProjectionResult, error)
	TokenMetrics(ctx context.Context) (*domain.TokenMetricsResult, error)
}

// Config holds the HTTP serving settings.
type Config struct {
	Addr           string
	CORSOrigins    []string
	MaxWindowDays  int
	MaxHorizonDays int
	AppName        string
	AppVersion     string
}

// Server is the HTTP front end.
type Server struct {
	cfg     Config
	api     BurnAPI
	metrics *observability.Metrics
	httpSrv *http.Server
}

// New builds the server with all routes registered. metrics may be nil.
func New(cfg Config, api BurnAPI, metrics *observability.Metrics) *Server {
	s := &Server{cfg: cfg, api: api, metrics: metrics}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /token/meta", s.handleTokenMeta)
	mux.HandleFunc("GET /token/metrics", s.handleTokenMetrics)
	mux.HandleFunc("GET /burn/summary", s.handleSummary)
	mux.HandleFunc("GET /burn/series", s.handleSeries)
	mux.HandleFunc("GET /burn/projection", s.handleProjection)
	mux.Handle("GET /metrics", observability.Handler())

	s.httpSrv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.corsMiddleware(s.metricsMiddleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start serves until Shutdown. Blocks.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", slog.String("addr", s.cfg.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// corsMiddleware answers preflights and stamps allowed origins from config.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.cfg.CORSOrigins))
	wildcard := false
	for _, o := range s.cfg.CORSOrigins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (wildcard || allowed[origin]) {
			if wildcard {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request latency per path.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.metrics.ObserveHTTP(r.URL.Path, time.Since(start).Seconds())
	})
}
