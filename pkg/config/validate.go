package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/exportable/pkg/export"
	"mercator-hq/exportable/pkg/schema"
	"mercator-hq/exportable/pkg/store"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "store.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateTypes(&cfg.Types)...)
	errs = append(errs, validateExport(&cfg.Export)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateJobs(cfg.Jobs)...)
	errs = append(errs, validateWatch(&cfg.Watch)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateTypes(cfg *TypesConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Validator) {
	case "", schema.ValidatorNone, schema.ValidatorCUE, schema.ValidatorJSONSchema:
	default:
		errs = append(errs, FieldError{
			Field:   "types.validator",
			Message: fmt.Sprintf("invalid validator %q (must be one of: none, cue, jsonschema)", cfg.Validator),
		})
	}

	for i, f := range cfg.Files {
		if strings.TrimSpace(f) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("types.files[%d]", i),
				Message: "file path cannot be empty",
			})
		}
	}

	return errs
}

func validateExport(cfg *ExportConfig) []FieldError {
	var errs []FieldError

	if cfg.Format != "" {
		if _, err := export.ParseFormat(cfg.Format); err != nil {
			errs = append(errs, FieldError{
				Field:   "export.format",
				Message: formatMessage(cfg.Format),
			})
		}
	}

	return errs
}

// validateStore validates store configuration.
func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case store.BackendSQLite:
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.path",
				Message: "SQLite database path is required",
			})
		}
		if cfg.SQLite.Driver != store.DriverCGO && cfg.SQLite.Driver != store.DriverPureGo {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q (must be %q or %q)", cfg.SQLite.Driver, store.DriverCGO, store.DriverPureGo),
			})
		}
		if cfg.SQLite.MaxOpenConns < 0 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.max_open_conns",
				Message: "max open connections must be non-negative",
			})
		}
		if cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.max_idle_conns",
				Message: "max idle connections must be non-negative",
			})
		}
		if cfg.SQLite.MaxIdleConns > cfg.SQLite.MaxOpenConns && cfg.SQLite.MaxOpenConns > 0 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.max_idle_conns",
				Message: "max idle connections cannot exceed max open connections",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.busy_timeout",
				Message: "busy timeout must be non-negative",
			})
		}
	case store.BackendMemory:
	default:
		errs = append(errs, FieldError{
			Field:   "store.backend",
			Message: fmt.Sprintf("invalid backend %q (must be %q or %q)", cfg.Backend, store.BackendSQLite, store.BackendMemory),
		})
	}

	return errs
}

// validateJobs validates job definitions. Record type names are checked
// when the jobs are built, after the type files are loaded.
func validateJobs(jobs []JobConfig) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool, len(jobs))

	for i, job := range jobs {
		prefix := fmt.Sprintf("jobs[%d]", i)

		if job.Name == "" {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: "job name is required"})
		} else if seen[job.Name] {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: fmt.Sprintf("duplicate job name %q", job.Name)})
		}
		seen[job.Name] = true

		if job.Type == "" {
			errs = append(errs, FieldError{Field: prefix + ".type", Message: "record type is required"})
		}
		if (job.Input == "") == !job.FromStore {
			errs = append(errs, FieldError{Field: prefix + ".input", Message: "exactly one of input and from_store must be set"})
		}
		if job.Via != "" && job.FromStore {
			errs = append(errs, FieldError{Field: prefix + ".via", Message: "via cannot be used with from_store"})
		}
		if job.Schedule != "" {
			if _, err := cron.ParseStandard(job.Schedule); err != nil {
				errs = append(errs, FieldError{Field: prefix + ".schedule", Message: fmt.Sprintf("invalid cron expression: %v", err)})
			}
		}

		if len(job.Targets) == 0 {
			errs = append(errs, FieldError{Field: prefix + ".targets", Message: "at least one target is required"})
		}
		for j, target := range job.Targets {
			tprefix := fmt.Sprintf("%s.targets[%d]", prefix, j)
			if target.Path == "" {
				errs = append(errs, FieldError{Field: tprefix + ".path", Message: "target path is required"})
			}
			if target.Format != "" {
				if _, err := export.ParseFormat(target.Format); err != nil {
					errs = append(errs, FieldError{Field: tprefix + ".format", Message: formatMessage(target.Format)})
				}
			}
		}
	}

	return errs
}

func validateWatch(cfg *WatchConfig) []FieldError {
	if cfg.Debounce < 0 {
		return []FieldError{{Field: "watch.debounce", Message: "debounce must be non-negative"}}
	}
	return nil
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be one of: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be one of: json, text, console)", cfg.Logging.Format),
		})
	}

	if cfg.Logging.File.Path != "" {
		if cfg.Logging.File.MaxSizeMB < 0 {
			errs = append(errs, FieldError{Field: "telemetry.logging.file.max_size_mb", Message: "max size must be non-negative"})
		}
		if cfg.Logging.File.MaxBackups < 0 {
			errs = append(errs, FieldError{Field: "telemetry.logging.file.max_backups", Message: "max backups must be non-negative"})
		}
		if cfg.Logging.File.MaxAgeDays < 0 {
			errs = append(errs, FieldError{Field: "telemetry.logging.file.max_age_days", Message: "max age must be non-negative"})
		}
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		if _, _, err := net.SplitHostPort(cfg.Metrics.Address); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.address",
				Message: fmt.Sprintf("invalid address %q (expected host:port)", cfg.Metrics.Address),
			})
		}
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "collector endpoint is required"})
		}
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (must be one of: always, never, ratio)", cfg.Tracing.Sampler),
			})
		}
		if r := cfg.Tracing.Ratio(); r < 0 || r > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: fmt.Sprintf("sample ratio must be between 0.0 and 1.0, got %g", r),
			})
		}
		if cfg.Tracing.Timeout < 0 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.timeout", Message: "timeout must be non-negative"})
		}
	}

	return errs
}

func formatMessage(format string) string {
	return fmt.Sprintf("invalid format %q (must be one of: txt, json, csv)", format)
}
