package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/synth-study/internal/api"
	"github.com/phrazzld/synth-study/internal/auth"
	"github.com/phrazzld/synth-study/internal/backend"
	"github.com/phrazzld/synth-study/internal/config"
	"github.com/phrazzld/synth-study/internal/events"
	"github.com/phrazzld/synth-study/internal/metrics"
	"github.com/phrazzld/synth-study/internal/study"
	"github.com/prometheus/client_golang/prometheus"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// backend is the unauthenticated client; per-caller copies are made by
	// userBackend.
	backend   *backend.Client
	inspector auth.TokenInspector

	sessions *study.Registry
	emitter  events.EventEmitter
	gatherer prometheus.Gatherer

	// stopSweeper ends the session eviction loop.
	stopSweeper context.CancelFunc
}

// newApplication wires the gateway's dependencies. Study metrics are
// registered with registry, which also backs the /metrics endpoint.
func newApplication(cfg *config.Config, logger *slog.Logger, registry *prometheus.Registry) (*application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	app := &application{
		config:   cfg,
		logger:   logger,
		gatherer: registry,
	}

	app.backend = backend.New(cfg.Backend.BaseURL, nil,
		backend.WithRequestTimeout(cfg.Backend.RequestTimeout),
		backend.WithLogger(logger))
	logger.Info("Backend client initialized", slog.String("base_url", cfg.Backend.BaseURL))

	app.inspector = auth.NewTokenInspector(auth.DefaultClockSkew, nil)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewLogHandler(logger))
	emitter.RegisterHandler(metrics.New(registry))
	app.emitter = emitter

	app.sessions = study.NewRegistry(cfg.Gateway.SessionTTL, nil, logger)

	logger.Info("Application initialized successfully")
	return app, nil
}

// userBackend binds the backend client to one caller's bearer token.
func (app *application) userBackend(token string) api.UserBackend {
	return app.backend.WithTokenSource(backend.StaticToken(token))
}

// startSweeper evicts idle study sessions until cleanup runs.
func (app *application) startSweeper(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	app.stopSweeper = cancel

	interval := app.config.Gateway.SessionTTL / 4
	if interval <= 0 {
		interval = study.DefaultSessionTTL / 4
	}
	go app.sessions.Run(ctx, interval)
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()
	app.startSweeper(ctx)

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.stopSweeper != nil {
		app.stopSweeper()
	}
	app.logger.Info("Application shutdown completed",
		slog.Int("open_sessions", app.sessions.Len()))
}
