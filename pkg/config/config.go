package config

import "time"

// Config is the root configuration structure for exportable.
// It contains the record type definitions, export defaults, the record
// store, the configured jobs and telemetry settings.
type Config struct {
	// Types contains the record type definition files and the validator
	// used when reading records.
	Types TypesConfig `yaml:"types"`

	// Export contains defaults applied to every export destination.
	Export ExportConfig `yaml:"export"`

	// Store contains the record store backend configuration.
	Store StoreConfig `yaml:"store"`

	// Jobs are the named export jobs run by the schedule command.
	Jobs []JobConfig `yaml:"jobs"`

	// Watch contains configuration for rerunning jobs when their input
	// files change.
	Watch WatchConfig `yaml:"watch"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TypesConfig contains record type definition settings.
type TypesConfig struct {
	// Files are YAML type definition files, loaded in order. Types may
	// reference types defined in earlier files.
	Files []string `yaml:"files"`

	// Validator checks raw input before decoding.
	// Valid values: "none", "cue", "jsonschema"
	// Default: "none"
	Validator string `yaml:"validator"`
}

// ExportConfig contains export defaults.
type ExportConfig struct {
	// Format is used for destinations that name no format. An empty value
	// infers the format from the destination suffix.
	// Valid values: "", "txt", "json", "csv"
	Format string `yaml:"format"`

	// Force overwrites existing destination files.
	Force bool `yaml:"force"`

	// Append appends to existing destination files.
	Append bool `yaml:"append"`

	// OutputDir is prepended to relative target paths of jobs.
	OutputDir string `yaml:"output_dir"`
}

// StoreConfig contains record store configuration.
type StoreConfig struct {
	// Backend selects the store implementation.
	// Valid values: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite backend configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/records.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver.
	// Valid values: "sqlite3" (cgo), "sqlite" (pure Go)
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode. Nil means the default.
	// Default: true
	WALMode *bool `yaml:"wal_mode"`

	// BusyTimeout is how long a connection waits for a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// WAL reports whether WAL mode is enabled.
func (c SQLiteConfig) WAL() bool {
	if c.WALMode == nil {
		return DefaultSQLiteWALMode
	}
	return *c.WALMode
}

// JobConfig describes one export job.
type JobConfig struct {
	// Name identifies the job. Names must be unique.
	Name string `yaml:"name"`

	// Type is the record type exported by the job.
	Type string `yaml:"type"`

	// Input is a line-delimited JSON file, or "-" for stdin. Exactly one of
	// Input and FromStore must be set.
	Input string `yaml:"input"`

	// Via names the type input lines are read as before conversion.
	Via string `yaml:"via"`

	// FromStore reads the records of Type from the store.
	FromStore bool `yaml:"from_store"`

	// Schedule is a standard cron expression. Jobs without a schedule only
	// run on demand or when their input changes.
	Schedule string `yaml:"schedule"`

	// Targets are the destinations the job writes to.
	Targets []TargetConfig `yaml:"targets"`
}

// TargetConfig describes one export destination of a job.
type TargetConfig struct {
	// Path is the destination file, or "-" for stdout.
	Path string `yaml:"path"`

	// Format overrides export.format for this target.
	Format string `yaml:"format"`

	// Force overwrites an existing file.
	Force bool `yaml:"force"`

	// Append appends to an existing file.
	Append bool `yaml:"append"`
}

// WatchConfig contains input watching configuration.
type WatchConfig struct {
	// Enabled reruns a job when its input file changes.
	Enabled bool `yaml:"enabled"`

	// Debounce is the quiet period after a change before the job runs.
	// Default: 250ms
	Debounce time.Duration `yaml:"debounce"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Valid values: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file:line in log output.
	AddSource bool `yaml:"add_source"`

	// File writes logs to a rotating file instead of stderr.
	File LogFileConfig `yaml:"file"`
}

// LogFileConfig contains rotating log file configuration. An empty Path
// disables file output.
type LogFileConfig struct {
	Path string `yaml:"path"`

	// MaxSizeMB is the size at which the file is rotated.
	// Default: 100
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	// Default: 3
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays is how long rotated files are kept.
	// Default: 28
	MaxAgeDays int `yaml:"max_age_days"`

	// Compress gzips rotated files.
	Compress bool `yaml:"compress"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled serves Prometheus metrics while jobs are scheduled.
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Address is the listen address of the metrics endpoint.
	// Default: "127.0.0.1:9090"
	Address string `yaml:"address"`

	// Namespace prefixes every metric name.
	// Default: "exportable"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Spans cover
// job runs, exports and syncs.
type TracingConfig struct {
	// Enabled exports spans to the OTLP collector at Endpoint.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export to the collector.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled by the "ratio" sampler.
	// Default: 1.0
	SampleRatio *float64 `yaml:"sample_ratio"`

	// ServiceName is the service name in traces.
	// Default: "exportable"
	ServiceName string `yaml:"service_name"`
}

// Ratio returns the sample ratio, or 1 when unset.
func (c TracingConfig) Ratio() float64 {
	if c.SampleRatio == nil {
		return 1
	}
	return *c.SampleRatio
}

// Job returns the job named name.
func (c *Config) Job(name string) (*JobConfig, bool) {
	for i := range c.Jobs {
		if c.Jobs[i].Name == name {
			return &c.Jobs[i], true
		}
	}
	return nil, false
}

// ScheduledJobs returns the jobs that have a schedule.
func (c *Config) ScheduledJobs() []JobConfig {
	var out []JobConfig
	for _, j := range c.Jobs {
		if j.Schedule != "" {
			out = append(out, j)
		}
	}
	return out
}
