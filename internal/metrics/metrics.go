// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recompute results.
const (
	RecomputeUpdated = "updated"
	RecomputeMissing = "missing_movie"
	RecomputeError   = "error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemateca_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinemateca_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	aggregateRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemateca_aggregate_recomputes_total",
			Help: "Movie rating aggregate recomputations by result.",
		},
		[]string{"result"},
	)

	reviewSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemateca_review_submissions_total",
			Help: "Review submissions by outcome (created, overwritten, retried).",
		},
		[]string{"outcome"},
	)
)

// ObserveRecompute counts one aggregate recomputation.
func ObserveRecompute(result string) {
	aggregateRecomputes.WithLabelValues(result).Inc()
}

// ObserveReviewSubmission counts one review submission outcome.
func ObserveReviewSubmission(outcome string) {
	reviewSubmissions.WithLabelValues(outcome).Inc()
}

// Middleware records request count and latency labelled by the matched chi route
// pattern, which keeps label cardinality bounded for paths carrying ids.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
