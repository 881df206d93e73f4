// Package metrics provides Prometheus instrumentation for the
// matchmaking service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueueDepth tracks live queue entries per bucket.
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "byteduel_queue_depth",
		Help: "Number of live matchmaking queue entries",
	}, []string{"mode", "time_control"})

	// MatchesCreated counts committed pairings by quality tier.
	MatchesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "byteduel_matches_created_total",
		Help: "Total pairings committed",
	}, []string{"mode", "time_control", "quality"})

	// WaitTime observes time-to-match per bucket.
	WaitTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "byteduel_match_wait_seconds",
		Help:    "Time from enqueue to committed pairing",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"mode", "time_control"})

	// RadiusExpansions counts search radius expansions.
	RadiusExpansions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "byteduel_radius_expansions_total",
		Help: "Search radius expansions applied by sweeps",
	})

	// DuelCreationFailures counts rolled-back pairings.
	DuelCreationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "byteduel_duel_creation_failures_total",
		Help: "Pairings rolled back because duel creation failed",
	})

	// RatingUpdates counts applied rating deltas by side.
	RatingUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "byteduel_rating_updates_total",
		Help: "Rating updates applied",
	}, []string{"side"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "byteduel_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "byteduel_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; the route surface is small.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
