// Package observability wires structured logging, Prometheus metrics and
// OpenTelemetry tracing for the plugin runtime.
//
// # Logging
//
// NewLogger returns a *slog.Logger whose handler adds the invocation fields
// stored in the context by AddInvocation and redacts credentials:
//
//	logger := observability.NewLogger(observability.LogConfig{Level: "debug", Format: "text"})
//	ctx = observability.AddInvocation(ctx, id, "kick", "Steve")
//	logger.InfoContext(ctx, "command executed") // invocation_id, command and sender attached
//
// # Metrics
//
// Metrics owns a private registry so that several instances can coexist in
// tests. It satisfies the command dispatcher's Recorder interface:
//
//	metrics := observability.NewMetrics()
//	dispatcher := commands.NewDispatcher(reg, host, renderer, commands.WithRecorder(metrics))
//	http.Handle("/metrics", metrics.Handler())
//
// # Tracing
//
// NewTracer exports spans over OTLP/gRPC when an endpoint is configured and
// falls back to the global no-op tracer otherwise:
//
//	tracer, shutdown := observability.NewTracer(observability.TraceConfig{Endpoint: "localhost:4317"})
//	defer shutdown(context.Background())
//	dispatcher := commands.NewDispatcher(reg, host, renderer, commands.WithTracer(tracer))
package observability
