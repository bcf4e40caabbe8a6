// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"

	"github.com/ManuGH/videoplane/internal/validate"
)

// Validate checks a fully merged configuration and reports every problem at once.
func Validate(cfg Config) error {
	v := validate.New()

	p := cfg.Provider
	v.NotEmpty("provider.apiKey", p.APIKey)
	v.NotEmpty("provider.libraryId", p.LibraryID)
	v.NotEmpty("provider.tokenAuthKey", p.TokenAuthKey)
	v.Distinct("provider.tokenAuthKey", p.TokenAuthKey, "provider.apiKey", p.APIKey)
	v.URL("provider.baseUrl", p.BaseURL, []string{"http", "https"})
	v.URL("provider.uploadUrl", p.UploadURL, []string{"http", "https"})
	v.URL("provider.embedBaseUrl", p.EmbedBaseURL, []string{"http", "https"})
	v.PositiveDuration("provider.timeout", p.Timeout)
	if p.RateLimit < 0 {
		v.AddError("provider.rateLimit", "rate limit cannot be negative", p.RateLimit)
	}
	v.NonNegative("provider.rateBurst", p.RateBurst)

	v.ListenAddr("api.listenAddr", cfg.API.ListenAddr)
	if !strings.HasPrefix(cfg.API.Path, "/") {
		v.AddError("api.path", "path must start with /", cfg.API.Path)
	}
	if cfg.API.RateLimitEnabled {
		v.Positive("api.rateLimitRpm", cfg.API.RateLimitRPM)
	}

	v.LogLevel("log.level", cfg.Log.Level)

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
		v.FloatRange("tracing.sampleRate", cfg.Tracing.SampleRate, 0, 1)
	}

	v.PositiveDuration("shutdownTimeout", cfg.ShutdownTimeout)

	return v.Err()
}
