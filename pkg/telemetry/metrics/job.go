package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/exportable/pkg/config"
)

// JobMetrics tracks job runs and snapshot syncs.
//
// Metrics:
//   - exportable_job_runs_total: job runs by job and status (success, error)
//   - exportable_job_duration_seconds: job run duration histogram
//   - exportable_job_last_success_timestamp_seconds: time of the last successful run
//   - exportable_sync_changes_total: records added or updated by sync, by type
type JobMetrics struct {
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	syncChanges *prometheus.CounterVec
}

// NewJobMetrics creates and registers job metrics with the provided registry.
func NewJobMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *JobMetrics {
	jm := &JobMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "job",
				Name:      "runs_total",
				Help:      "Total number of job runs",
			},
			[]string{"job", "status"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "job",
				Name:      "duration_seconds",
				Help:      "Duration of job runs in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"job"},
		),

		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "job",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful job run",
			},
			[]string{"job"},
		),

		syncChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "sync",
				Name:      "changes_total",
				Help:      "Total number of records added or updated by sync",
			},
			[]string{"type", "change"},
		),
	}

	registry.MustRegister(
		jm.runsTotal,
		jm.runDuration,
		jm.lastSuccess,
		jm.syncChanges,
	)

	return jm
}

// RecordRun records a finished job run.
func (jm *JobMetrics) RecordRun(job string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	} else {
		jm.lastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
	jm.runsTotal.WithLabelValues(job, status).Inc()
	jm.runDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordSync records the changes of one sync.
func (jm *JobMetrics) RecordSync(typeName string, added, updated int) {
	jm.syncChanges.WithLabelValues(typeName, "added").Add(float64(added))
	jm.syncChanges.WithLabelValues(typeName, "updated").Add(float64(updated))
}
