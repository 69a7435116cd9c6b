package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/taskmaster/internal/http"

// HTTPMetrics records per-route request counts, latency and response size.
type HTTPMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Int64Histogram
	inflight metric.Int64UpDownCounter
}

// NewHTTPMetrics creates HTTP instruments on the global meter provider.
func NewHTTPMetrics(logger *zap.Logger) *HTTPMetrics {
	return NewHTTPMetricsWithMeter(otel.Meter(httpInstrumentationName), logger)
}

// NewHTTPMetricsWithMeter creates HTTP instruments on meter. An instrument
// that cannot be created is replaced by a no-op and logged.
func NewHTTPMetricsWithMeter(meter metric.Meter, logger *zap.Logger) *HTTPMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &HTTPMetrics{}
	var err error

	if m.requests, err = meter.Int64Counter("taskmaster.http.requests_total",
		metric.WithDescription("HTTP requests by method, route and status"),
		metric.WithUnit("{request}"),
	); err != nil {
		logger.Warn("failed to create requests counter", zap.Error(err))
		m.requests = noop.Int64Counter{}
	}

	if m.duration, err = meter.Float64Histogram("taskmaster.http.request_duration_seconds",
		metric.WithDescription("HTTP request latency by method, route and status"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30),
	); err != nil {
		logger.Warn("failed to create duration histogram", zap.Error(err))
		m.duration = noop.Float64Histogram{}
	}

	if m.size, err = meter.Int64Histogram("taskmaster.http.response_size_bytes",
		metric.WithDescription("HTTP response body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(64, 256, 1024, 4096, 16384, 65536),
	); err != nil {
		logger.Warn("failed to create response size histogram", zap.Error(err))
		m.size = noop.Int64Histogram{}
	}

	if m.inflight, err = meter.Int64UpDownCounter("taskmaster.http.active_requests",
		metric.WithDescription("HTTP requests in flight"),
		metric.WithUnit("{request}"),
	); err != nil {
		logger.Warn("failed to create active requests gauge", zap.Error(err))
		m.inflight = noop.Int64UpDownCounter{}
	}

	return m
}

// MetricsMiddleware returns an Echo middleware that records HTTP metrics.
func (m *HTTPMetrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			m.inflight.Add(ctx, 1)
			defer m.inflight.Add(ctx, -1)

			err := next(c)

			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", normalizePath(c.Path())),
				attribute.Int("status", c.Response().Status),
			)
			m.requests.Add(ctx, 1, attrs)
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.size.Record(ctx, c.Response().Size, attrs)
			return err
		}
	}
}

// normalizePath maps the echo route pattern to the endpoint label. Patterns
// such as /api/tasks/:id keep ids out of the label; unmatched requests share
// one label.
func normalizePath(path string) string {
	if path == "" {
		return "unmatched"
	}
	return path
}
