// Package router turns a free-text sentence into a task operation. It asks the
// upstream model for a Command, extracts and validates the JSON it returns and
// dispatches the result to the task store.
package router

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskmaster/internal/apperr"
	"github.com/fyrsmithlabs/taskmaster/internal/llm"
	"github.com/fyrsmithlabs/taskmaster/internal/logging"
	"github.com/fyrsmithlabs/taskmaster/internal/secrets"
	"github.com/fyrsmithlabs/taskmaster/internal/taskstore"
)

// Store is the subset of the task store the router dispatches to.
type Store interface {
	Append(description string) (taskstore.Task, error)
	MarkComplete(id int) (taskstore.Task, error)
	Remove(id int) (taskstore.Task, error)
	ListAll() []taskstore.Task
}

// Result is the response to one routed sentence.
//
// Call is the command object exactly as the model produced it. Tasks is the
// post-dispatch snapshot of the whole list.
type Result struct {
	Call   map[string]any   `json:"call"`
	Result any              `json:"result"`
	Tasks  []taskstore.Task `json:"tasks"`
}

// Scrubber removes credentials from text before it leaves the process.
type Scrubber interface {
	Scrub(text string) secrets.Result
}

// Router routes free text through the model to the store.
type Router struct {
	store    Store
	client   llm.Client
	scrubber Scrubber
	logger   *logging.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// Option configures a Router.
type Option func(*Router)

// WithScrubber redacts secrets from routed text before it is sent upstream.
func WithScrubber(s Scrubber) Option {
	return func(r *Router) { r.scrubber = s }
}

// WithLogger sets the router logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithTracer sets the tracer for route spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Router) { r.tracer = t }
}

// New creates a Router.
func New(store Store, client llm.Client, opts ...Option) *Router {
	r := &Router{
		store:  store,
		client: client,
		logger: logging.NewNop(),
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(r.logger.Underlying())
	}
	return r
}

// Route sends text to the model and executes the command it answers with.
// Nothing is mutated unless dispatch succeeds.
func (r *Router) Route(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.InvalidInput("text required")
	}

	routeID := uuid.NewString()
	ctx = logging.WithRouteID(ctx, routeID)
	ctx, span := r.tracer.Start(ctx, "router.Route", trace.WithAttributes(attribute.String("route.id", routeID)))
	defer span.End()

	sent := text
	if r.scrubber != nil {
		scrubbed := r.scrubber.Scrub(text)
		if scrubbed.HasFindings() {
			r.logger.Warn(ctx, "redacted secrets from routed text",
				zap.Strings("rules", scrubbed.RuleIDs()))
		}
		sent = scrubbed.Text
	}

	start := time.Now()
	raw, err := r.client.Complete(ctx, llm.Request{System: SystemPrompt, User: sent})
	r.metrics.RecordUpstream(ctx, time.Since(start), err)
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.Upstream("llm request failed", err)
		}
		r.fail(ctx, "", sent, "", err)
		return nil, err
	}

	call, err := ExtractJSON(raw)
	if err != nil {
		r.fail(ctx, "", sent, raw, err)
		return nil, err
	}

	cmd, err := ParseCommand(call)
	if err != nil {
		fn, _ := call["function"].(string)
		r.fail(ctx, fn, sent, raw, err)
		return nil, err
	}

	result, err := r.Execute(cmd)
	if err != nil {
		r.fail(ctx, string(cmd.Function()), sent, raw, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("route.function", string(cmd.Function())))
	r.metrics.RecordRoute(ctx, string(cmd.Function()), "ok")
	r.logger.Info(ctx, "routed command",
		zap.String("function", string(cmd.Function())))

	return &Result{
		Call:   call,
		Result: result,
		Tasks:  r.store.ListAll(),
	}, nil
}

// Execute dispatches a validated command to the store.
func (r *Router) Execute(cmd Command) (any, error) {
	switch c := cmd.(type) {
	case AddTask:
		return r.store.Append(c.Description)
	case ViewTasks:
		return r.store.ListAll(), nil
	case CompleteTask:
		return r.store.MarkComplete(c.TaskID)
	case DeleteTask:
		return r.store.Remove(c.TaskID)
	default:
		return nil, apperr.InvalidInput("unknown function: %T", cmd)
	}
}

func (r *Router) fail(ctx context.Context, fn, text, raw string, err error) {
	kind := apperr.KindOf(err)
	if kind == "" {
		kind = "error"
	}
	r.metrics.RecordRoute(ctx, fn, string(kind))

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(kind))

	fields := []zap.Field{
		zap.String("text", text),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}
	if raw != "" {
		fields = append(fields, zap.String("raw_output", raw))
	}
	r.logger.Error(ctx, "route failed", fields...)
}
