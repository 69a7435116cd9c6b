package router

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/taskmaster/internal/router"

// Metrics records route outcomes and upstream latency.
type Metrics struct {
	meter    metric.Meter
	logger   *zap.Logger
	routes   metric.Int64Counter
	upstream metric.Float64Histogram
}

// NewMetrics creates router instruments on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	return NewMetricsWithMeter(otel.Meter(instrumentationName), logger)
}

// NewMetricsWithMeter creates router instruments on meter.
func NewMetricsWithMeter(meter metric.Meter, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		meter:  meter,
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.routes, err = m.meter.Int64Counter(
		"taskmaster.router.routes_total",
		metric.WithDescription("Routed sentences by function and outcome"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		m.logger.Warn("failed to create routes counter", zap.Error(err))
	}

	m.upstream, err = m.meter.Float64Histogram(
		"taskmaster.router.upstream_duration_seconds",
		metric.WithDescription("Duration of upstream model calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		m.logger.Warn("failed to create upstream histogram", zap.Error(err))
	}
}

// RecordRoute counts one routed sentence. An empty function means the model
// output never produced one.
func (m *Metrics) RecordRoute(ctx context.Context, function, outcome string) {
	if m.routes == nil {
		return
	}
	if function == "" {
		function = "none"
	}
	m.routes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("function", function),
		attribute.String("outcome", outcome),
	))
}

// RecordUpstream records the latency of one model call.
func (m *Metrics) RecordUpstream(ctx context.Context, d time.Duration, err error) {
	if m.upstream == nil {
		return
	}
	m.upstream.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.Bool("error", err != nil),
	))
}
