// Package telemetry groups the observability packages of exportable.
//
// # Components
//
//   - logging: structured slog logging with session and type context
//   - metrics: Prometheus counters and histograms for rows, exports, jobs and syncs
//   - tracing: OpenTelemetry spans for job runs, exports and syncs
//   - health: liveness and readiness probes served next to the metrics
//
// # Usage
//
//	cfg := config.GetConfig()
//	logger, _ := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
// The export and pipeline packages accept the metrics collector through
// small recorder interfaces and start their spans from the global tracer
// provider, so they do not depend on this package.
package telemetry
