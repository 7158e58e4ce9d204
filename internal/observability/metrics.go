// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing, so tests can pass nil.
type Metrics struct {
	// Upstream provider metrics
	UpstreamRequests *prometheus.CounterVec // endpoint, status
	UpstreamRetries  *prometheus.CounterVec // endpoint, reason
	DayFetches       prometheus.Counter

	// Cache metrics
	CacheHits   *prometheus.CounterVec // kind
	CacheMisses *prometheus.CounterVec // kind

	// HTTP serving metrics
	HTTPRequestDuration *prometheus.HistogramVec // path
}

// NewMetrics creates a Metrics instance with all metrics registered on the
// default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "burnwatch"
	}

	return &Metrics{
		UpstreamRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total upstream provider requests by endpoint and final status",
		}, []string{"endpoint", "status"}),
		UpstreamRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Total retried upstream requests by endpoint and reason",
		}, []string{"endpoint", "reason"}),
		DayFetches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "burn",
			Name:      "day_fetches_total",
			Help:      "Total per-day burn totals computed from upstream transfers",
		}),
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by payload kind",
		}, []string{"kind"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache misses by payload kind",
		}, []string{"kind"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by path",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpstream records the final status of one upstream request.
func (m *Metrics) ObserveUpstream(endpoint, status string) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, status).Inc()
}

// ObserveRetry records one retried upstream request.
func (m *Metrics) ObserveRetry(endpoint, reason string) {
	if m == nil {
		return
	}
	m.UpstreamRetries.WithLabelValues(endpoint, reason).Inc()
}

// ObserveDayFetch records one per-day burn total computation.
func (m *Metrics) ObserveDayFetch() {
	if m == nil {
		return
	}
	m.DayFetches.Inc()
}

// ObserveCache records a payload cache lookup outcome.
func (m *Metrics) ObserveCache(kind string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(kind).Inc()
	} else {
		m.CacheMisses.WithLabelValues(kind).Inc()
	}
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(path string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(path).Observe(seconds)
}
