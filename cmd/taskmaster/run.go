package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskmaster/internal/config"
	"github.com/fyrsmithlabs/taskmaster/internal/events"
	httpserver "github.com/fyrsmithlabs/taskmaster/internal/http"
	"github.com/fyrsmithlabs/taskmaster/internal/llm"
	"github.com/fyrsmithlabs/taskmaster/internal/logging"
	"github.com/fyrsmithlabs/taskmaster/internal/mcp"
	"github.com/fyrsmithlabs/taskmaster/internal/router"
	"github.com/fyrsmithlabs/taskmaster/internal/secrets"
	"github.com/fyrsmithlabs/taskmaster/internal/taskstore"
	"github.com/fyrsmithlabs/taskmaster/internal/telemetry"
)

type mode int

const (
	modeServe mode = iota
	modeStdio
)

// app holds the wired components shared by the HTTP and stdio modes.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	publisher events.Publisher
	store     *taskstore.Store
	router    *router.Router
	mcp       *mcp.Server
}

// run starts the HTTP server and blocks until ctx is cancelled.
//
// Startup order:
//  1. Loads and validates configuration
//  2. Initializes telemetry and logger
//  3. Connects the event publisher (NATS when enabled)
//  4. Creates the task store, LLM client and router
//  5. Wires the MCP server and HTTP server
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	a, err := newApp(ctx, configPath, modeServe)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := httpserver.NewServer(a.store, a.router, a.logger, &httpserver.Config{
		Host:        a.cfg.Server.Host,
		Port:        a.cfg.Server.Port,
		CORSEnabled: a.cfg.Server.CORSEnabled,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, httpserver.WithMCPHandler(a.mcp.HTTPHandler()),
		httpserver.WithMetrics(httpserver.NewHTTPMetricsWithMeter(
			a.telemetry.Meter("github.com/fyrsmithlabs/taskmaster/internal/http"), a.logger.Underlying())))
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	a.logger.Info(ctx, "server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", a.cfg.Server.Host, a.cfg.Server.Port)),
		zap.String("mcp_endpoint", "/mcp"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	a.logger.Info(shutdownCtx, "server shutdown complete")
	return nil
}

// runStdio serves the MCP tools on stdin/stdout. Logs go to stderr.
func runStdio(ctx context.Context, configPath string) error {
	a, err := newApp(ctx, configPath, modeStdio)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.mcp.Run(ctx)
}

func newApp(ctx context.Context, configPath string, m mode) (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetryConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logCfg, err := loggingConfig(cfg, m, tel.LoggerProvider() != nil)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if health := tel.Health(); !health.Healthy {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", health.Reason))
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		telemetry: tel,
		publisher: events.Nop{},
	}

	if cfg.Events.Enabled {
		pub, err := events.Connect(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			// Publishing is optional.
			logger.Warn(ctx, "event publishing disabled",
				zap.String("nats_url", cfg.Events.NATSURL), zap.Error(err))
		} else {
			a.publisher = pub
			logger.Info(ctx, "publishing task events", zap.String("nats_url", cfg.Events.NATSURL))
		}
	}

	a.store = taskstore.New(
		taskstore.WithChangeHook(taskstore.MetricsHook()),
		taskstore.WithChangeHook(events.Hook(a.publisher, logger)),
	)

	client, err := llm.New(llm.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey.Value(),
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		RateLimit:   cfg.LLM.RateLimit,
		Burst:       cfg.LLM.Burst,
	})
	if err != nil {
		logger.Warn(ctx, "llm client unavailable, /api/ai will fail until configured",
			zap.String("provider", cfg.LLM.Provider), zap.Error(err))
		client = llm.Unavailable(err)
	}

	opts := []router.Option{
		router.WithLogger(logger.Named("router")),
		router.WithMetrics(router.NewMetricsWithMeter(tel.Meter("github.com/fyrsmithlabs/taskmaster/internal/router"), logger.Underlying())),
		router.WithTracer(tel.Tracer("github.com/fyrsmithlabs/taskmaster/internal/router")),
	}
	if cfg.Router.ScrubInput && cfg.Secrets.Enabled {
		scrubber, err := secrets.New(secrets.DefaultConfig())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create secret scrubber: %w", err)
		}
		opts = append(opts, router.WithScrubber(scrubber))
	}
	a.router = router.New(a.store, client, opts...)

	a.mcp, err = mcp.NewServer(&mcp.Config{
		Name:    "taskmaster",
		Version: version,
		Logger:  logger.Named("mcp").Underlying(),
		Metrics: mcp.NewMetricsWithMeter(tel.Meter("github.com/fyrsmithlabs/taskmaster/internal/mcp"), logger.Underlying()),
	}, a.store, a.router)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create mcp server: %w", err)
	}

	logger.Info(ctx, "taskmaster started",
		zap.String("version", version),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Bool("scrub_input", cfg.Router.ScrubInput && cfg.Secrets.Enabled),
		zap.Bool("events", cfg.Events.Enabled),
		zap.Bool("telemetry", tel.IsEnabled()))

	return a, nil
}

// Close releases the publisher, flushes telemetry and syncs the logger.
func (a *app) Close() {
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn(context.Background(), "failed to close event publisher", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func telemetryConfig(cfg *config.Config) *telemetry.Config {
	tc := telemetry.NewDefaultConfig()
	tc.Enabled = cfg.Telemetry.Enabled
	tc.Endpoint = cfg.Telemetry.Endpoint
	tc.Protocol = cfg.Telemetry.Protocol
	tc.Insecure = cfg.Telemetry.Insecure
	tc.TLSSkipVerify = cfg.Telemetry.TLSSkipVerify
	tc.SampleRate = cfg.Telemetry.SampleRate
	tc.ServiceName = cfg.Telemetry.ServiceName
	tc.ServiceVersion = cfg.Telemetry.ServiceVersion
	return tc
}

// loggingConfig maps the user-facing logging section onto the logger config.
// Stdio mode moves output to stderr since stdout carries the MCP stream.
func loggingConfig(cfg *config.Config, m mode, otel bool) (*logging.Config, error) {
	lc := logging.NewDefaultConfig()

	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging level %q: %w", cfg.Logging.Level, err)
	}
	lc.Level = level
	if cfg.Logging.Format != "" {
		lc.Format = cfg.Logging.Format
	}
	if m == modeStdio {
		lc.Output.Stdout = false
		lc.Output.Stderr = true
	}
	lc.Output.OTEL = otel
	return lc, nil
}
