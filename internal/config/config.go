// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the immutable process configuration: defaults, then
// an optional strict YAML file, then environment overrides.
package config

import (
	"time"

	"github.com/ManuGH/videoplane/internal/signing"
)

const (
	DefaultProviderURL  = "https://video.bunnycdn.com"
	DefaultUploadURL    = "https://video.bunnycdn.com/tusupload"
	DefaultEmbedBaseURL = "https://iframe.mediadelivery.net/embed"
	DefaultListenAddr   = ":8080"
	DefaultAPIPath      = "/api/video"
)

// Config is the complete process configuration. It is loaded once and
// passed explicitly to the components that need it.
type Config struct {
	Provider        ProviderConfig `yaml:"provider"`
	API             APIConfig      `yaml:"api"`
	Log             LogConfig      `yaml:"log"`
	Tracing         TracingConfig  `yaml:"tracing"`
	ShutdownTimeout time.Duration  `yaml:"shutdownTimeout"`

	Version string `yaml:"-"`
}

// ProviderConfig holds the video provider credentials and endpoints. The
// keys never leave the server.
type ProviderConfig struct {
	APIKey       string        `yaml:"apiKey"`
	LibraryID    string        `yaml:"libraryId"`
	TokenAuthKey string        `yaml:"tokenAuthKey"`
	BaseURL      string        `yaml:"baseUrl"`
	UploadURL    string        `yaml:"uploadUrl"`
	EmbedBaseURL string        `yaml:"embedBaseUrl"`
	Timeout      time.Duration `yaml:"timeout"`
	RateLimit    float64       `yaml:"rateLimit"` // requests per second, 0 disables
	RateBurst    int           `yaml:"rateBurst"`
}

// Keys returns the signing keys for both authorization domains.
func (p ProviderConfig) Keys() signing.Keys {
	return signing.Keys{
		LibraryID:    p.LibraryID,
		APIKey:       p.APIKey,
		TokenAuthKey: p.TokenAuthKey,
	}
}

type APIConfig struct {
	ListenAddr       string `yaml:"listenAddr"`
	Path             string `yaml:"path"`
	RateLimitEnabled bool   `yaml:"rateLimitEnabled"`
	RateLimitRPM     int    `yaml:"rateLimitRpm"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Exporter   string  `yaml:"exporter"` // grpc | http
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate"`
}

// Default returns the configuration used before any file or environment
// value is applied. Secrets have no defaults.
func Default() Config {
	return Config{
		Provider: ProviderConfig{
			BaseURL:      DefaultProviderURL,
			UploadURL:    DefaultUploadURL,
			EmbedBaseURL: DefaultEmbedBaseURL,
			Timeout:      30 * time.Second,
		},
		API: APIConfig{
			ListenAddr:   DefaultListenAddr,
			Path:         DefaultAPIPath,
			RateLimitRPM: 600,
		},
		Log: LogConfig{
			Level:   "info",
			Service: "videoplane",
		},
		Tracing: TracingConfig{
			Exporter:   "grpc",
			Endpoint:   "localhost:4317",
			SampleRate: 1.0,
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// Masked returns a copy safe for logging.
func (c Config) Masked() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	c.Provider.APIKey = mask(c.Provider.APIKey)
	c.Provider.TokenAuthKey = mask(c.Provider.TokenAuthKey)
	c.Provider.BaseURL = MaskURL(c.Provider.BaseURL)
	return c
}
