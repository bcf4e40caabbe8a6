// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "videoplane_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "action", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "videoplane_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "videoplane_http_response_size_bytes",
		Help:    "HTTP response sizes in bytes",
		Buckets: prometheus.ExponentialBuckets(16, 4, 8),
	}, []string{"method", "path", "status"})
)

var knownActions = map[string]bool{"create": true, "status": true, "delete": true, "embed-token": true}

// actionLabel keeps label cardinality bounded for arbitrary query input.
func actionLabel(r *http.Request) string {
	a := r.URL.Query().Get("action")
	switch {
	case a == "":
		return "none"
	case knownActions[a]:
		return a
	}
	return "invalid"
}

// Metrics records Prometheus metrics for HTTP requests.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			// Route pattern avoids cardinality explosion on unknown paths.
			path := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if pattern := rc.RoutePattern(); pattern != "" {
					path = pattern
				}
			}

			status := strconv.Itoa(rec.status)
			httpRequestDuration.WithLabelValues(r.Method, path, actionLabel(r), status).Observe(time.Since(start).Seconds())
			if rec.bytes > 0 {
				httpResponseSize.WithLabelValues(r.Method, path, status).Observe(float64(rec.bytes))
			}
		})
	}
}
