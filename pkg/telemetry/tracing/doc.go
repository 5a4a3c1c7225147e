// Package tracing configures OpenTelemetry tracing.
//
// New installs a global tracer provider that exports spans over OTLP gRPC.
// The pipeline and export packages start their spans from the global
// provider, so they need no reference to a Tracer; with tracing disabled
// the global provider stays a no-op.
//
// Spans:
//
//   - pipeline.job: one job run, with the job name, source and row counts
//   - export: one destination, with format, path, rows and outcome
//   - pipeline.sync: one snapshot sync, with added and updated counts
//
// Usage:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
package tracing
