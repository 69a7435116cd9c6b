// Package telemetry provides OpenTelemetry tracing and metrics for taskmaster.
//
// Spans and metrics are exported over OTLP (gRPC or HTTP/protobuf) to a
// collector. When telemetry is disabled the global no-op providers stay in
// place, so instrumented code never needs to check.
//
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	meter := tel.Meter("github.com/fyrsmithlabs/taskmaster/internal/router")
//
// Configuration:
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc
//	  service_name: "taskmaster"
//
// Initialization failures degrade the instance instead of failing startup;
// Health reports the cause.
//
// Tests use TestTelemetry, which records spans and metrics in memory:
//
//	tt := telemetry.NewTestTelemetry()
//	m, ok := tt.CollectMetric(t, "taskmaster.router.routes_total")
package telemetry
