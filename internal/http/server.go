// Package http serves the task JSON API, the routed-text endpoint and the
// HTML page.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskmaster/internal/logging"
	"github.com/fyrsmithlabs/taskmaster/internal/router"
	"github.com/fyrsmithlabs/taskmaster/internal/taskstore"
)

// Store is the task store surface used by the handlers.
type Store interface {
	Append(description string) (taskstore.Task, error)
	MarkComplete(id int) (taskstore.Task, error)
	Remove(id int) (taskstore.Task, error)
	ListAll() []taskstore.Task
	Len() int
}

// Router turns free text into an executed command.
type Router interface {
	Route(ctx context.Context, text string) (*router.Result, error)
}

// Server provides HTTP endpoints for taskmaster.
type Server struct {
	echo     *echo.Echo
	store    Store
	router   Router
	logger   *logging.Logger
	config   *Config
	metrics  *HTTPMetrics
	mcp      http.Handler
	gatherer http.Handler
}

// Config holds HTTP server configuration.
type Config struct {
	Host        string
	Port        int
	CORSEnabled bool
	CORSOrigins []string
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithMCPHandler mounts h at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) { s.mcp = h }
}

// WithMetrics sets the HTTP metrics recorder.
func WithMetrics(m *HTTPMetrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMetricsHandler replaces the default promhttp handler at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.gatherer = h }
}

// NewServer creates a new HTTP server.
func NewServer(store Store, r Router, logger *logging.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if r == nil {
		return nil, fmt.Errorf("router cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = pageRenderer{}

	s := &Server{
		echo:   e,
		store:  store,
		router: r,
		logger: logger,
		config: cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewHTTPMetrics(logger.Underlying())
	}
	if s.gatherer == nil {
		s.gatherer = promhttp.Handler()
	}

	e.HTTPErrorHandler = s.handleError

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	if cfg.CORSEnabled {
		origins := cfg.CORSOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		}))
	}
	e.Use(s.metrics.MetricsMiddleware())
	e.Use(s.requestContext)

	s.registerRoutes()

	return s, nil
}

// requestContext carries the request id and logger into the request context
// and logs one line per request.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		ctx := req.Context()
		if rid := c.Response().Header().Get(echo.HeaderXRequestID); logging.ValidID(rid) {
			ctx = logging.WithRequestID(ctx, rid)
		}
		ctx = logging.WithLogger(ctx, s.logger)
		c.SetRequest(req.WithContext(ctx))

		err := next(c)
		if err != nil {
			// Commit the error response so the logged status is the real one.
			c.Error(err)
		}

		s.logger.Info(ctx, "http request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(s.gatherer))

	api := s.echo.Group("/api")
	api.GET("/tasks", s.handleListTasks)
	api.POST("/tasks", s.handleAddTask)
	api.PATCH("/tasks/:id/complete", s.handleCompleteTask)
	api.DELETE("/tasks/:id", s.handleDeleteTask)
	api.POST("/ai", s.handleRoute)

	if s.mcp != nil {
		s.echo.Any("/mcp", echo.WrapHandler(s.mcp))
		s.echo.Any("/mcp/*", echo.WrapHandler(s.mcp))
	}
}

// Handler exposes the echo instance as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
