package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	routeIDKey
	loggerKey
)

const maxIDLen = 128

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ContextFields returns the correlation fields carried by ctx: trace and span
// ids of the active span, the request id and the route id.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request.id", id))
	}
	if id := RouteIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("route.id", id))
	}
	return fields
}

func checkID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("id is empty")
	case !utf8.ValidString(id):
		return fmt.Errorf("id is not valid UTF-8")
	case len(id) > maxIDLen:
		return fmt.Errorf("id longer than %d bytes", maxIDLen)
	case !idPattern.MatchString(id):
		return fmt.Errorf("id %q may only contain letters, digits, '-' and '_'", id)
	}
	return nil
}

// ValidID reports whether id is acceptable for WithRequestID and WithRouteID.
func ValidID(id string) bool {
	return checkID(id) == nil
}

func withID(ctx context.Context, key ctxKey, id string) context.Context {
	if err := checkID(id); err != nil {
		panic("logging: " + err.Error())
	}
	return context.WithValue(ctx, key, id)
}

func idFrom(ctx context.Context, key ctxKey) string {
	id, _ := ctx.Value(key).(string)
	return id
}

// WithRequestID tags ctx with an HTTP request id. It panics on an invalid id;
// check untrusted input with ValidID first.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withID(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string { return idFrom(ctx, requestIDKey) }

// WithRouteID tags ctx with the id of one routed sentence. It panics on an
// invalid id.
func WithRouteID(ctx context.Context, id string) context.Context {
	return withID(ctx, routeIDKey, id)
}

func RouteIDFromContext(ctx context.Context) string { return idFrom(ctx, routeIDKey) }

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return NewNop()
}
