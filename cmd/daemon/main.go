// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/ManuGH/videoplane/internal/api"
	"github.com/ManuGH/videoplane/internal/bunny"
	"github.com/ManuGH/videoplane/internal/config"
	"github.com/ManuGH/videoplane/internal/daemon"
	"github.com/ManuGH/videoplane/internal/health"
	xglog "github.com/ManuGH/videoplane/internal/log"
	"github.com/ManuGH/videoplane/internal/telemetry"
	"github.com/ManuGH/videoplane/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "videoplane",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.Log.Level,
		Service: cfg.Log.Service,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	masked := cfg.Masked()
	logger.Info().
		Str("event", "config.loaded").
		Str("source", source).
		Str("library_id", masked.Provider.LibraryID).
		Str("provider", masked.Provider.BaseURL).
		Str("upload_url", masked.Provider.UploadURL).
		Str("api_key", masked.Provider.APIKey).
		Str("token_key", masked.Provider.TokenAuthKey).
		Msg("loaded configuration")

	if err := run(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Str("event", "daemon.failed").Msg("daemon failed")
	}
	logger.Info().Msg("server exiting")
}

func run(ctx context.Context, cfg config.Config) error {
	logger := xglog.WithComponent("daemon")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	provider := bunny.New(cfg.Provider.BaseURL, cfg.Provider.LibraryID, cfg.Provider.APIKey, bunny.Options{
		Timeout:   cfg.Provider.Timeout,
		RateLimit: rate.Limit(cfg.Provider.RateLimit),
		RateBurst: cfg.Provider.RateBurst,
		UserAgent: "videoplane/" + cfg.Version,
	})
	handler, err := api.NewHandler(cfg.Provider, provider)
	if err != nil {
		return err
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewConfigChecker(cfg))

	mgr, err := daemon.NewManager(daemon.ServerConfigFrom(cfg), daemon.Deps{
		Logger:     logger,
		APIHandler: api.Routes(cfg, handler, hm),
		Health:     hm,
	})
	if err != nil {
		return err
	}
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.API.ListenAddr).
		Str("path", cfg.API.Path).
		Msg("starting videoplane")

	return mgr.Start(ctx)
}
