package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration without applying defaults. Unknown keys
// are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention EXPORTABLE_SECTION_FIELD (e.g., EXPORTABLE_STORE_BACKEND).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	// Export overrides must reach the job targets.
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format EXPORTABLE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Types overrides
	if val := os.Getenv("EXPORTABLE_TYPES_FILES"); val != "" {
		cfg.Types.Files = splitList(val)
	}
	if val := os.Getenv("EXPORTABLE_TYPES_VALIDATOR"); val != "" {
		cfg.Types.Validator = val
	}

	// Export overrides
	if val := os.Getenv("EXPORTABLE_EXPORT_FORMAT"); val != "" {
		cfg.Export.Format = val
	}
	if val := os.Getenv("EXPORTABLE_EXPORT_FORCE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Export.Force = b
		}
	}
	if val := os.Getenv("EXPORTABLE_EXPORT_APPEND"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Export.Append = b
		}
	}
	if val := os.Getenv("EXPORTABLE_EXPORT_OUTPUT_DIR"); val != "" {
		cfg.Export.OutputDir = val
	}

	// Store overrides
	if val := os.Getenv("EXPORTABLE_STORE_BACKEND"); val != "" {
		cfg.Store.Backend = val
	}
	if val := os.Getenv("EXPORTABLE_STORE_SQLITE_PATH"); val != "" {
		cfg.Store.SQLite.Path = val
	}
	if val := os.Getenv("EXPORTABLE_STORE_SQLITE_DRIVER"); val != "" {
		cfg.Store.SQLite.Driver = val
	}
	if val := os.Getenv("EXPORTABLE_STORE_SQLITE_WAL_MODE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Store.SQLite.WALMode = &b
		}
	}
	if val := os.Getenv("EXPORTABLE_STORE_SQLITE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Store.SQLite.BusyTimeout = d
		}
	}

	// Watch overrides
	if val := os.Getenv("EXPORTABLE_WATCH_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Watch.Enabled = b
		}
	}
	if val := os.Getenv("EXPORTABLE_WATCH_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Watch.Debounce = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("EXPORTABLE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("EXPORTABLE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("EXPORTABLE_TELEMETRY_LOGGING_FILE_PATH"); val != "" {
		cfg.Telemetry.Logging.File.Path = val
	}
	if val := os.Getenv("EXPORTABLE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("EXPORTABLE_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("EXPORTABLE_TELEMETRY_METRICS_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.Address = val
	}

	if val := os.Getenv("EXPORTABLE_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("EXPORTABLE_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("EXPORTABLE_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if r, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = &r
		}
	}

	for i := range cfg.Jobs {
		applyJobEnvOverrides(&cfg.Jobs[i])
	}
}

// applyJobEnvOverrides applies environment variable overrides for a specific job.
// Job environment variables follow the format EXPORTABLE_JOBS_<NAME>_<FIELD>
// where NAME is the uppercase job name with dashes replaced by underscores.
func applyJobEnvOverrides(job *JobConfig) {
	name := strings.ToUpper(strings.ReplaceAll(job.Name, "-", "_"))
	prefix := fmt.Sprintf("EXPORTABLE_JOBS_%s_", name)

	if val := os.Getenv(prefix + "INPUT"); val != "" {
		job.Input = val
	}
	if val := os.Getenv(prefix + "SCHEDULE"); val != "" {
		job.Schedule = val
	}
}

func splitList(val string) []string {
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
