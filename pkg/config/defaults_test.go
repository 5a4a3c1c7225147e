package config

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Types.Validator != DefaultValidator {
					t.Errorf("expected validator %q, got %q", DefaultValidator, cfg.Types.Validator)
				}
				if cfg.Store.Backend != DefaultStoreBackend {
					t.Errorf("expected store backend %q, got %q", DefaultStoreBackend, cfg.Store.Backend)
				}
				if cfg.Store.SQLite.Path != DefaultSQLitePath {
					t.Errorf("expected SQLite path %q, got %q", DefaultSQLitePath, cfg.Store.SQLite.Path)
				}
				if cfg.Store.SQLite.Driver != DefaultSQLiteDriver {
					t.Errorf("expected SQLite driver %q, got %q", DefaultSQLiteDriver, cfg.Store.SQLite.Driver)
				}
				if cfg.Store.SQLite.MaxOpenConns != DefaultSQLiteMaxOpenConns {
					t.Errorf("expected max open conns %d, got %d", DefaultSQLiteMaxOpenConns, cfg.Store.SQLite.MaxOpenConns)
				}
				if !cfg.Store.SQLite.WAL() {
					t.Error("expected WAL mode to default to enabled")
				}
				if cfg.Store.SQLite.BusyTimeout != DefaultSQLiteBusyTimeout {
					t.Errorf("expected busy timeout %v, got %v", DefaultSQLiteBusyTimeout, cfg.Store.SQLite.BusyTimeout)
				}
				if cfg.Watch.Debounce != DefaultWatchDebounce {
					t.Errorf("expected debounce %v, got %v", DefaultWatchDebounce, cfg.Watch.Debounce)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Logging.Format != DefaultLoggingFormat {
					t.Errorf("expected logging format %q, got %q", DefaultLoggingFormat, cfg.Telemetry.Logging.Format)
				}
				if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
					t.Errorf("expected metrics path %q, got %q", DefaultMetricsPath, cfg.Telemetry.Metrics.Path)
				}
				if cfg.Telemetry.Metrics.Namespace != DefaultMetricsNamespace {
					t.Errorf("expected metrics namespace %q, got %q", DefaultMetricsNamespace, cfg.Telemetry.Metrics.Namespace)
				}
				if cfg.Telemetry.Tracing.Sampler != DefaultTracingSampler || cfg.Telemetry.Tracing.Ratio() != 1 {
					t.Errorf("expected sampler %q with ratio 1, got %+v", DefaultTracingSampler, cfg.Telemetry.Tracing)
				}
				if cfg.Telemetry.Tracing.Enabled {
					t.Error("expected tracing disabled by default")
				}
			},
		},
		{
			name: "existing values are preserved",
			input: Config{
				Store: StoreConfig{
					Backend: "memory",
					SQLite: SQLiteConfig{
						Path:        "/var/lib/records.db",
						BusyTimeout: time.Second,
					},
				},
				Watch: WatchConfig{Debounce: time.Second},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Store.Backend != "memory" {
					t.Error("existing backend was overwritten")
				}
				if cfg.Store.SQLite.Path != "/var/lib/records.db" {
					t.Error("existing SQLite path was overwritten")
				}
				if cfg.Store.SQLite.BusyTimeout != time.Second {
					t.Error("existing busy timeout was overwritten")
				}
				if cfg.Watch.Debounce != time.Second {
					t.Error("existing debounce was overwritten")
				}
				if cfg.Store.SQLite.MaxIdleConns != DefaultSQLiteMaxIdleConns {
					t.Error("max idle conns should get default when not set")
				}
			},
		},
		{
			name: "explicit WAL off is kept",
			input: Config{
				Store: StoreConfig{SQLite: SQLiteConfig{WALMode: new(bool)}},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Store.SQLite.WAL() {
					t.Error("explicit wal_mode false was overwritten")
				}
			},
		},
		{
			name: "targets inherit export defaults",
			input: Config{
				Export: ExportConfig{Format: "csv", Force: true},
				Jobs: []JobConfig{{
					Name: "nightly",
					Targets: []TargetConfig{
						{Path: "out/a"},
						{Path: "out/b.json", Format: "json"},
					},
				}},
			},
			check: func(t *testing.T, cfg *Config) {
				a, b := cfg.Jobs[0].Targets[0], cfg.Jobs[0].Targets[1]
				if a.Format != "csv" || !a.Force {
					t.Errorf("expected first target to inherit csv and force, got %+v", a)
				}
				if b.Format != "json" || !b.Force {
					t.Errorf("expected second target to keep json and inherit force, got %+v", b)
				}
				if a.Append || b.Append {
					t.Error("append should not be set")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	first := Default()
	second := Default()
	ApplyDefaults(second)

	if !reflect.DeepEqual(first, second) {
		t.Error("ApplyDefaults should be idempotent")
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("default configuration should be valid, got: %v", err)
	}
}
