// Package metrics provides Prometheus metrics for exportable.
//
// The Collector implements export.Recorder, so it can be passed as the
// Metrics option of an export to count rows and export outcomes per format.
// Job runs and sync changes are recorded by the pipeline.
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	addr, err := collector.Serve(ctx, cfg.Telemetry.Metrics.Address, cfg.Telemetry.Metrics.Path)
//
// Recording is a no-op when metrics are disabled in the configuration.
package metrics
