// Package logging provides the service's structured logger.
//
// Logger wraps Zap with context-aware methods. Every call picks up trace,
// request and route correlation fields from the context:
//
//	ctx := logging.WithRequestID(ctx, requestID)
//	ctx = logging.WithRouteID(ctx, routeID)
//	logger.Error(ctx, "route failed", zap.String("raw_output", raw), zap.Error(err))
//
// Output goes to stdout, or stderr when stdout carries the MCP stream, and
// optionally to an OpenTelemetry log provider. Fields named like credentials
// and string values matching credential patterns are masked before any
// output sees them.
//
// Tests use TestLogger to observe entries in memory.
package logging
