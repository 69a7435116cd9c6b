package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskmaster/internal/router"
	"github.com/fyrsmithlabs/taskmaster/internal/taskstore"
)

// Store is the task store surface the tools operate on.
type Store interface {
	Append(description string) (taskstore.Task, error)
	MarkComplete(id int) (taskstore.Task, error)
	Remove(id int) (taskstore.Task, error)
	ListAll() []taskstore.Task
}

// Router routes free text to a command.
type Router interface {
	Route(ctx context.Context, text string) (*router.Result, error)
}

// Server is an MCP server over a task store and router.
type Server struct {
	mcp     *mcp.Server
	store   Store
	router  Router
	metrics *Metrics
	logger  *zap.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "taskmaster")
	Name string

	// Version is the server version (default: "0.1.0")
	Version string

	// Logger for structured logging
	Logger *zap.Logger

	// Metrics records tool invocations. Defaults to the global meter.
	Metrics *Metrics
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "taskmaster",
		Version: "0.1.0",
		Logger:  zap.NewNop(),
	}
}

// NewServer creates an MCP server with all task tools registered.
func NewServer(cfg *Config, store Store, r Router) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if store == nil {
		return nil, fmt.Errorf("task store is required")
	}
	if r == nil {
		return nil, fmt.Errorf("router is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(logger)
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:     mcpServer,
		store:   store,
		router:  r,
		metrics: metrics,
		logger:  logger,
	}
	s.registerTools()

	return s, nil
}

// Run serves MCP on the stdio transport until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// Connect serves one session on transport. Used for in-process clients.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, transport, nil)
}

// HTTPHandler returns a streamable HTTP handler bound to this server.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}
