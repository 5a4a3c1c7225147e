package config

import (
	"strings"
	"testing"
)

// assertFieldError checks that err is a ValidationError naming field, or
// nil when field is empty.
func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	if field == "" {
		if err != nil {
			t.Errorf("expected no error, got: %v", err)
		}
		return
	}
	if err == nil {
		t.Fatalf("expected error for field %q, got nil", field)
	}
	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	for _, fe := range validationErr.Errors {
		if fe.Field == field {
			return
		}
	}
	t.Errorf("expected error for field %q, got: %v", field, validationErr.Errors)
}

func validJob() JobConfig {
	return JobConfig{
		Name:    "nightly",
		Type:    "tank",
		Input:   "data/tanks.jsonl",
		Targets: []TargetConfig{{Path: "out/tanks.csv"}},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Default()
	cfg.Jobs = []JobConfig{validJob()}

	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", validationErr.Error())
	}
}

func TestValidate_TypesAndExport(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*Config)
		errorField string
	}{
		{"cue validator", func(c *Config) { c.Types.Validator = "CUE" }, ""},
		{"jsonschema validator", func(c *Config) { c.Types.Validator = "jsonschema" }, ""},
		{"unknown validator", func(c *Config) { c.Types.Validator = "xsd" }, "types.validator"},
		{"empty type file", func(c *Config) { c.Types.Files = []string{"a.yaml", " "} }, "types.files[1]"},
		{"text export format", func(c *Config) { c.Export.Format = "text" }, ""},
		{"unknown export format", func(c *Config) { c.Export.Format = "xlsx" }, "export.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assertFieldError(t, Validate(cfg), tt.errorField)
		})
	}
}

func TestValidate_StoreConfig(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*StoreConfig)
		errorField string
	}{
		{"memory backend", func(s *StoreConfig) { s.Backend = "memory"; s.SQLite = SQLiteConfig{} }, ""},
		{"pure go driver", func(s *StoreConfig) { s.SQLite.Driver = "sqlite" }, ""},
		{"unknown backend", func(s *StoreConfig) { s.Backend = "postgres" }, "store.backend"},
		{"empty path", func(s *StoreConfig) { s.SQLite.Path = "" }, "store.sqlite.path"},
		{"unknown driver", func(s *StoreConfig) { s.SQLite.Driver = "pg" }, "store.sqlite.driver"},
		{"negative open conns", func(s *StoreConfig) { s.SQLite.MaxOpenConns = -1 }, "store.sqlite.max_open_conns"},
		{"idle exceeds open", func(s *StoreConfig) { s.SQLite.MaxIdleConns = 20 }, "store.sqlite.max_idle_conns"},
		{"negative busy timeout", func(s *StoreConfig) { s.SQLite.BusyTimeout = -1 }, "store.sqlite.busy_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg.Store)
			assertFieldError(t, Validate(cfg), tt.errorField)
		})
	}
}

func TestValidate_Jobs(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*JobConfig)
		errorField string
	}{
		{"valid job", func(j *JobConfig) {}, ""},
		{"from store", func(j *JobConfig) { j.Input = ""; j.FromStore = true }, ""},
		{"scheduled", func(j *JobConfig) { j.Schedule = "*/15 * * * *" }, ""},
		{"descriptor schedule", func(j *JobConfig) { j.Schedule = "@every 1h" }, ""},
		{"missing name", func(j *JobConfig) { j.Name = "" }, "jobs[0].name"},
		{"missing type", func(j *JobConfig) { j.Type = "" }, "jobs[0].type"},
		{"no input", func(j *JobConfig) { j.Input = "" }, "jobs[0].input"},
		{"input and store", func(j *JobConfig) { j.FromStore = true }, "jobs[0].input"},
		{"via with store", func(j *JobConfig) { j.Input = ""; j.FromStore = true; j.Via = "legacy" }, "jobs[0].via"},
		{"bad schedule", func(j *JobConfig) { j.Schedule = "every day" }, "jobs[0].schedule"},
		{"no targets", func(j *JobConfig) { j.Targets = nil }, "jobs[0].targets"},
		{"target without path", func(j *JobConfig) { j.Targets[0].Path = "" }, "jobs[0].targets[0].path"},
		{"target bad format", func(j *JobConfig) { j.Targets[0].Format = "xml" }, "jobs[0].targets[0].format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			job := validJob()
			tt.modify(&job)
			cfg.Jobs = []JobConfig{job}
			assertFieldError(t, Validate(cfg), tt.errorField)
		})
	}
}

func TestValidate_DuplicateJobNames(t *testing.T) {
	cfg := Default()
	cfg.Jobs = []JobConfig{validJob(), validJob()}

	assertFieldError(t, Validate(cfg), "jobs[1].name")
}

func TestValidate_TelemetryConfig(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*TelemetryConfig)
		errorField string
	}{
		{"uppercase level", func(c *TelemetryConfig) { c.Logging.Level = "WARN" }, ""},
		{"invalid level", func(c *TelemetryConfig) { c.Logging.Level = "trace" }, "telemetry.logging.level"},
		{"invalid format", func(c *TelemetryConfig) { c.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"negative backups", func(c *TelemetryConfig) {
			c.Logging.File.Path = "logs/exportable.log"
			c.Logging.File.MaxBackups = -1
		}, "telemetry.logging.file.max_backups"},
		{"metrics enabled", func(c *TelemetryConfig) { c.Metrics.Enabled = true }, ""},
		{"metrics path without slash", func(c *TelemetryConfig) {
			c.Metrics.Enabled = true
			c.Metrics.Path = "metrics"
		}, "telemetry.metrics.path"},
		{"metrics bad address", func(c *TelemetryConfig) {
			c.Metrics.Enabled = true
			c.Metrics.Address = "localhost"
		}, "telemetry.metrics.address"},
		{"disabled metrics not checked", func(c *TelemetryConfig) { c.Metrics.Address = "localhost" }, ""},
		{"tracing enabled", func(c *TelemetryConfig) { c.Tracing.Enabled = true }, ""},
		{"tracing bad sampler", func(c *TelemetryConfig) {
			c.Tracing.Enabled = true
			c.Tracing.Sampler = "sometimes"
		}, "telemetry.tracing.sampler"},
		{"tracing ratio out of range", func(c *TelemetryConfig) {
			ratio := 1.5
			c.Tracing.Enabled = true
			c.Tracing.Sampler = "ratio"
			c.Tracing.SampleRatio = &ratio
		}, "telemetry.tracing.sample_ratio"},
		{"tracing without endpoint", func(c *TelemetryConfig) {
			c.Tracing.Enabled = true
			c.Tracing.Endpoint = ""
		}, "telemetry.tracing.endpoint"},
		{"disabled tracing not checked", func(c *TelemetryConfig) { c.Tracing.Sampler = "sometimes" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg.Telemetry)
			assertFieldError(t, Validate(cfg), tt.errorField)
		})
	}
}

func TestValidate_NegativeDebounce(t *testing.T) {
	cfg := Default()
	cfg.Watch.Debounce = -1

	assertFieldError(t, Validate(cfg), "watch.debounce")
}
