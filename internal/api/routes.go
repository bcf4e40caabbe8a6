// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/videoplane/internal/api/middleware"
	"github.com/ManuGH/videoplane/internal/config"
	"github.com/ManuGH/videoplane/internal/health"
)

// Routes mounts the control-plane handler at cfg.API.Path next to the
// probe and metrics endpoints, behind the canonical middleware stack.
func Routes(cfg config.Config, h http.Handler, hm *health.Manager) http.Handler {
	stack := middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableLogging:         true,
		EnableRateLimit:       cfg.API.RateLimitEnabled,
		RateLimitRPM:          cfg.API.RateLimitRPM,
	}
	if cfg.Tracing.Enabled {
		stack.TracingService = cfg.Log.Service
	}
	r := middleware.NewRouter(stack)

	if hm != nil {
		r.Get("/healthz", hm.ServeHealth)
		r.Get("/readyz", hm.ServeReady)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	path := cfg.API.Path
	if path == "" {
		path = config.DefaultAPIPath
	}
	r.Handle(path, h)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	return r
}
