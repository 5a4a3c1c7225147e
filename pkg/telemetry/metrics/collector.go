package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/exportable/pkg/config"
)

// durationBuckets covers exports from a few milliseconds to several minutes.
var durationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300}

// maxLabelValues bounds the distinct job and type label values.
const maxLabelValues = 1000

// otherLabel replaces label values beyond the cardinality limit.
const otherLabel = "other"

// Collector owns the Prometheus registry and every exportable metric. It
// implements export.Recorder.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	exportMetrics *ExportMetrics
	jobMetrics    *JobMetrics

	labels *CardinalityLimiter
}

// NewCollector creates a collector. If registry is nil, a new registry is
// created with the Go runtime and process collectors.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:        cfg,
		registry:      registry,
		exportMetrics: NewExportMetrics(cfg, registry),
		jobMetrics:    NewJobMetrics(cfg, registry),
		labels:        NewCardinalityLimiter(maxLabelValues),
	}
}

// RecordRow records one row handed to a renderer.
func (c *Collector) RecordRow(format string, ok bool) {
	if !c.config.Enabled {
		return
	}
	c.exportMetrics.RecordRow(format, ok)
}

// RecordExport records a finished export call.
//
// Parameters:
//   - format: counter label of the format ("CSV", "JSON", "Text")
//   - outcome: "ok", "partial", "empty", "cancelled" or "failed"
//   - duration: time from the call to the close of the destination
func (c *Collector) RecordExport(format, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.exportMetrics.RecordExport(format, outcome, duration)
}

// RecordJob records a finished job run.
func (c *Collector) RecordJob(job string, err error, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.jobMetrics.RecordRun(c.label("job", job), err, duration)
}

// RecordSync records the changes of one sync.
func (c *Collector) RecordSync(typeName string, added, updated int) {
	if !c.config.Enabled {
		return
	}
	c.jobMetrics.RecordSync(c.label("type", typeName), added, updated)
}

func (c *Collector) label(kind, value string) string {
	if !c.labels.Allow(kind + ":" + value) {
		return otherLabel
	}
	return value
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or still fits under the
// limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
