package mcp

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskmaster/internal/apperr"
)

const instrumentationName = "github.com/fyrsmithlabs/taskmaster/internal/mcp"

// Metrics records tool invocations.
type Metrics struct {
	invocations metric.Int64Counter
	errors      metric.Int64Counter
	duration    metric.Float64Histogram
	active      metric.Int64UpDownCounter
}

// NewMetrics creates tool instruments on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	return NewMetricsWithMeter(otel.Meter(instrumentationName), logger)
}

// NewMetricsWithMeter creates tool instruments on meter. Instruments that
// fail to register fall back to no-ops.
func NewMetricsWithMeter(meter metric.Meter, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	warn := func(what string, err error) {
		logger.Warn("failed to create "+what, zap.Error(err))
	}

	m := &Metrics{}
	var err error
	if m.invocations, err = meter.Int64Counter("taskmaster.mcp.tool.invocations_total",
		metric.WithDescription("MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	); err != nil {
		warn("invocations counter", err)
		m.invocations = noop.Int64Counter{}
	}
	if m.errors, err = meter.Int64Counter("taskmaster.mcp.tool.errors_total",
		metric.WithDescription("MCP tool failures by reason"),
		metric.WithUnit("{error}"),
	); err != nil {
		warn("errors counter", err)
		m.errors = noop.Int64Counter{}
	}
	if m.duration, err = meter.Float64Histogram("taskmaster.mcp.tool.duration_seconds",
		metric.WithDescription("MCP tool latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30),
	); err != nil {
		warn("duration histogram", err)
		m.duration = noop.Float64Histogram{}
	}
	if m.active, err = meter.Int64UpDownCounter("taskmaster.mcp.tool.active_requests",
		metric.WithDescription("MCP tool calls in flight"),
		metric.WithUnit("{request}"),
	); err != nil {
		warn("active requests gauge", err)
		m.active = noop.Int64UpDownCounter{}
	}
	return m
}

// Start marks a call to tool in flight. The returned func ends it and
// records its outcome.
func (m *Metrics) Start(ctx context.Context, tool string) func(error) {
	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("tool", tool))
	m.active.Add(ctx, 1, attrs)

	return func(err error) {
		m.active.Add(ctx, -1, attrs)
		m.invocations.Add(ctx, 1, attrs)
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		if err != nil {
			m.errors.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tool", tool),
				attribute.String("reason", categorizeError(err)),
			))
		}
	}
}

// categorizeError maps err to a low-cardinality reason label.
func categorizeError(err error) string {
	if err == nil {
		return ""
	}
	if kind := apperr.KindOf(err); kind != "" {
		return string(kind)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "internal_error"
}
