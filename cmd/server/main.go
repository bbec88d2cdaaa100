// Package main runs the study gateway: an HTTP service that hosts study
// sessions for browser clients and proxies deck, progress and account calls
// to the Synth backend.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/synth-study/internal/config"
	"github.com/phrazzld/synth-study/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := newApplication(cfg, appLogger, registry)
	if err != nil {
		appLogger.Error("Failed to create application", slog.String("error", err.Error()))
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		appLogger.Error("Server stopped with error", slog.String("error", err.Error()))
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("backend_url", cfg.Backend.BaseURL),
		slog.Duration("grading_timeout", cfg.Backend.GradingTimeout),
		slog.Duration("session_ttl", cfg.Gateway.SessionTTL))

	return cfg, appLogger, nil
}
