package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/exportable/pkg/config"
)

// ExportMetrics tracks rows and export calls per format.
//
// Metrics:
//   - exportable_export_rows_total: rows by format and status (ok, error)
//   - exportable_exports_total: export calls by format and outcome
//   - exportable_export_duration_seconds: export call duration histogram
type ExportMetrics struct {
	rowsTotal      *prometheus.CounterVec
	exportsTotal   *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
}

// NewExportMetrics creates and registers export metrics with the provided registry.
func NewExportMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ExportMetrics {
	em := &ExportMetrics{
		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "export",
				Name:      "rows_total",
				Help:      "Total number of rows handed to a renderer",
			},
			[]string{"format", "status"},
		),

		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "exports_total",
				Help:      "Total number of export calls by outcome",
			},
			[]string{"format", "outcome"},
		),

		exportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "export",
				Name:      "duration_seconds",
				Help:      "Duration of export calls in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"format"},
		),
	}

	registry.MustRegister(
		em.rowsTotal,
		em.exportsTotal,
		em.exportDuration,
	)

	return em
}

// RecordRow counts one rendered or failed row.
func (em *ExportMetrics) RecordRow(format string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	em.rowsTotal.WithLabelValues(format, status).Inc()
}

// RecordExport records a finished export call.
func (em *ExportMetrics) RecordExport(format, outcome string, duration time.Duration) {
	em.exportsTotal.WithLabelValues(format, outcome).Inc()
	em.exportDuration.WithLabelValues(format).Observe(duration.Seconds())
}
