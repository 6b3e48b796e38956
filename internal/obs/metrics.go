package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RateLimitDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_ratelimit_denied_total",
			Help: "Requests denied by the rate limiter.",
		},
		[]string{"scope"},
	)

	RateLimitFailOpen = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_ratelimit_failopen_total",
			Help: "Rate limit checks allowed because the cache backend was unavailable.",
		},
	)

	AuthzDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_authz_denied_total",
			Help: "Authorization denials by reason.",
		},
		[]string{"reason"},
	)

	ReviewTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_review_transitions_total",
			Help: "Report review transitions by action and outcome.",
		},
		[]string{"action", "outcome"},
	)
)

func Init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		RateLimitDenied,
		RateLimitFailOpen,
		AuthzDenied,
		ReviewTransitions,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request counts and latency, labeled by the chi
// route pattern so path cardinality stays bounded.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.code)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
