package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskmaster/internal/telemetry"
)

func TestHTTPMetrics_MetricsMiddleware(t *testing.T) {
	tt := telemetry.NewTestTelemetry()
	m := NewHTTPMetricsWithMeter(tt.Meter(httpInstrumentationName), zap.NewNop())

	e := echo.New()
	e.Use(m.MetricsMiddleware())
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.DELETE("/api/tasks/:id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
	})

	for _, target := range []string{"/health", "/api/tasks/1", "/api/tasks/2"} {
		method := http.MethodDelete
		if target == "/health" {
			method = http.MethodGet
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	}

	requests, ok := tt.CollectMetric(t, "taskmaster.http.requests_total")
	require.True(t, ok, "requests counter not found")
	assert.Equal(t, int64(3), telemetry.SumInt64(requests))
	assert.Equal(t, int64(2), telemetry.SumInt64(requests,
		attribute.String("endpoint", "/api/tasks/:id"),
		attribute.Int("status", http.StatusOK),
	))

	duration, ok := tt.CollectMetric(t, "taskmaster.http.request_duration_seconds")
	require.True(t, ok, "duration histogram not found")
	assert.Equal(t, uint64(3), telemetry.HistogramCount(duration))
	assert.Equal(t, uint64(1), telemetry.HistogramCount(duration, attribute.String("endpoint", "/health")))

	_, ok = tt.CollectMetric(t, "taskmaster.http.response_size_bytes")
	assert.True(t, ok, "response size histogram not found")
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unmatched"},
		{"/health", "/health"},
		{"/api/tasks/:id/complete", "/api/tasks/:id/complete"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizePath(tt.input), tt.input)
	}
}
