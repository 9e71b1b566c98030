package proxy

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storybit",
		Subsystem: "proxy",
		Name:      "requests_total",
		Help:      "Requests handled by route and status code.",
	}, []string{"route", "method", "code"})
	metricRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storybit",
		Subsystem: "proxy",
		Name:      "request_duration_seconds",
		Help:      "Request latency by route.",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"route"})
	metricUpstream = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storybit",
		Subsystem: "proxy",
		Name:      "upstream_results_total",
		Help:      "Outcomes of forwarded backend calls.",
	}, []string{"endpoint", "outcome"})
	metricRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storybit",
		Subsystem: "proxy",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)

// instrument records request counts and latency by matched route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metricRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		metricRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
