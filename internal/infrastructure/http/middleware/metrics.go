package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "accounts_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	accountEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_events_total",
			Help: "Total account events by outcome",
		},
		[]string{"event", "success"},
	)
	liveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "accounts_live_sessions",
			Help: "Browser sessions currently held in the registry",
		},
	)
)

// PrometheusMiddleware records request duration.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(ww.Status())
		path := r.URL.Path
		if path == "" {
			path = "/"
		}
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// RecordAccountEvent records an account event outcome.
func RecordAccountEvent(event string, success bool) {
	accountEvents.WithLabelValues(event, strconv.FormatBool(success)).Inc()
}

// RecordLiveSessions updates the live-session gauge.
func RecordLiveSessions(n int) {
	liveSessions.Set(float64(n))
}
