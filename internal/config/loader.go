// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/videoplane/internal/log"
)

// Environment keys.
const (
	EnvAPIKey       = "BUNNY_STREAM_API_KEY"
	EnvLibraryID    = "BUNNY_STREAM_LIBRARY_ID"
	EnvTokenKey     = "BUNNY_STREAM_TOKEN_KEY"
	EnvProviderURL  = "BUNNY_STREAM_API_URL"
	EnvUploadURL    = "BUNNY_STREAM_TUS_URL"
	EnvEmbedURL     = "BUNNY_STREAM_EMBED_URL"
	EnvTimeout      = "BUNNY_STREAM_TIMEOUT"
	EnvRateLimit    = "BUNNY_STREAM_RATE_LIMIT"
	EnvRateBurst    = "BUNNY_STREAM_RATE_BURST"
	EnvListen       = "VP_LISTEN"
	EnvAPIPath      = "VP_API_PATH"
	EnvIngressLimit = "VP_RATE_LIMIT_ENABLED"
	EnvIngressRPM   = "VP_RATE_LIMIT_RPM"
	EnvLogLevel     = "VP_LOG_LEVEL"
	EnvLogService   = "VP_LOG_SERVICE"
	EnvTracing      = "VP_TRACING_ENABLED"
	EnvTracingExp   = "VP_TRACING_EXPORTER"
	EnvTracingEP    = "VP_TRACING_ENDPOINT"
	EnvTracingRate  = "VP_TRACING_SAMPLE_RATE"
	EnvShutdown     = "VP_SHUTDOWN_TIMEOUT"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	lookup          LookupFunc
	logger          zerolog.Logger
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. configPath may be empty.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		lookup:          os.LookupEnv,
		logger:          log.WithComponent("config"),
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// WithLookup replaces the environment source.
func (l *Loader) WithLookup(fn LookupFunc) *Loader {
	l.lookup = fn
	return l
}

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return envValue(l.logger, l.lookup, key, def, parseString)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return envValue(l.logger, l.lookup, key, def, parseBool)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return envValue(l.logger, l.lookup, key, def, strconv.Atoi)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return envValue(l.logger, l.lookup, key, def, time.ParseDuration)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return envValue(l.logger, l.lookup, key, def, parseFloat)
}

// Load loads configuration with precedence: ENV > File > Defaults,
// then validates the result.
func (l *Loader) Load() (Config, error) {
	cfg := Default()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		cfg = *fileCfg
	}

	l.mergeEnv(&cfg)
	cfg.Provider.BaseURL = strings.TrimRight(cfg.Provider.BaseURL, "/")
	cfg.Provider.EmbedBaseURL = strings.TrimRight(cfg.Provider.EmbedBaseURL, "/")
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) mergeEnv(cfg *Config) {
	p := &cfg.Provider
	p.APIKey = l.envString(EnvAPIKey, p.APIKey)
	p.LibraryID = l.envString(EnvLibraryID, p.LibraryID)
	p.TokenAuthKey = l.envString(EnvTokenKey, p.TokenAuthKey)
	p.BaseURL = l.envString(EnvProviderURL, p.BaseURL)
	p.UploadURL = l.envString(EnvUploadURL, p.UploadURL)
	p.EmbedBaseURL = l.envString(EnvEmbedURL, p.EmbedBaseURL)
	p.Timeout = l.envDuration(EnvTimeout, p.Timeout)
	p.RateLimit = l.envFloat(EnvRateLimit, p.RateLimit)
	p.RateBurst = l.envInt(EnvRateBurst, p.RateBurst)

	cfg.API.ListenAddr = l.envString(EnvListen, cfg.API.ListenAddr)
	cfg.API.Path = l.envString(EnvAPIPath, cfg.API.Path)
	cfg.API.RateLimitEnabled = l.envBool(EnvIngressLimit, cfg.API.RateLimitEnabled)
	cfg.API.RateLimitRPM = l.envInt(EnvIngressRPM, cfg.API.RateLimitRPM)

	cfg.Log.Level = l.envString(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Service = l.envString(EnvLogService, cfg.Log.Service)

	cfg.Tracing.Enabled = l.envBool(EnvTracing, cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = l.envString(EnvTracingExp, cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString(EnvTracingEP, cfg.Tracing.Endpoint)
	cfg.Tracing.SampleRate = l.envFloat(EnvTracingRate, cfg.Tracing.SampleRate)

	cfg.ShutdownTimeout = l.envDuration(EnvShutdown, cfg.ShutdownTimeout)
}

// loadFile parses a YAML file strictly on top of the defaults.
// Unknown fields are fatal to prevent silent misconfiguration.
func (l *Loader) loadFile(path string) (*Config, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &cfg, nil
}
