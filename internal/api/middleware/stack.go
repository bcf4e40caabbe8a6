// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	xglog "github.com/ManuGH/videoplane/internal/log"
)

// StackConfig selects the optional layers of the ingress stack. Recovery,
// request ids and CORS are always installed.
type StackConfig struct {
	EnableSecurityHeaders bool
	EnableMetrics         bool
	EnableLogging         bool
	TracingService        string // empty disables tracing
	EnableRateLimit       bool
	RateLimitRPM          int
}

// Middlewares returns the stack outermost first. Rate limiting runs last so
// rejected requests are still logged, traced and counted.
func (c StackConfig) Middlewares() []func(http.Handler) http.Handler {
	mws := []func(http.Handler) http.Handler{Recoverer, RequestID, CORS()}
	if c.EnableSecurityHeaders {
		mws = append(mws, SecurityHeaders())
	}
	if c.EnableMetrics {
		mws = append(mws, Metrics())
	}
	if c.TracingService != "" {
		mws = append(mws, Tracing(c.TracingService))
	}
	if c.EnableLogging {
		mws = append(mws, xglog.Middleware())
	}
	if c.EnableRateLimit {
		mws = append(mws, APIRateLimit(c.RateLimitRPM))
	}
	return mws
}

// NewRouter returns a chi router with the stack installed.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(cfg.Middlewares()...)
	return r
}

// statusRecorder remembers the first status code and the body size.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.written {
		s.status = code
		s.written = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.written {
		s.WriteHeader(http.StatusOK)
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
