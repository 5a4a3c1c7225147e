package config

import (
	"sync"
	"testing"
)

func resetGlobal() {
	globalConfig = nil
	initOnce = *new(sync.Once)
}

func TestInitialize(t *testing.T) {
	resetGlobal()

	configPath := writeConfig(t, `
store:
  backend: memory
`)

	if err := Initialize(configPath); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after initialization")
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("expected backend %q, got %q", "memory", cfg.Store.Backend)
	}
}

func TestInitialize_EmptyPathUsesDefaults(t *testing.T) {
	resetGlobal()
	t.Setenv("EXPORTABLE_TELEMETRY_LOGGING_LEVEL", "warn")

	if err := Initialize(""); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	cfg := GetConfig()
	if cfg.Store.Backend != DefaultStoreBackend {
		t.Errorf("expected backend %q, got %q", DefaultStoreBackend, cfg.Store.Backend)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected logging level %q from env, got %q", "warn", cfg.Telemetry.Logging.Level)
	}
}

func TestInitialize_MultipleCallsIgnored(t *testing.T) {
	resetGlobal()

	first := writeConfig(t, "store:\n  backend: memory\n")
	second := writeConfig(t, "store:\n  backend: sqlite\n")

	if err := Initialize(first); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}
	if err := Initialize(second); err != nil {
		t.Fatalf("second initialize should be ignored, got: %v", err)
	}

	if got := GetConfig().Store.Backend; got != "memory" {
		t.Errorf("expected first config to be kept, got backend %q", got)
	}
}

func TestInitialize_Error(t *testing.T) {
	resetGlobal()

	if err := Initialize("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for nonexistent file")
	}
	if GetConfig() != nil {
		t.Error("expected nil config after failed initialization")
	}
}

func TestSetConfig(t *testing.T) {
	resetGlobal()

	cfg := Default()
	cfg.Export.OutputDir = "out"
	SetConfig(cfg)

	if GetConfig() != cfg {
		t.Error("expected GetConfig to return the config passed to SetConfig")
	}
}

func TestReloadConfig(t *testing.T) {
	resetGlobal()

	path := writeConfig(t, "store:\n  backend: memory\n")
	if err := Initialize(path); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	reloaded := writeConfig(t, "store:\n  backend: sqlite\n")
	if err := ReloadConfig(reloaded); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}

	if got := GetConfig().Store.Backend; got != "sqlite" {
		t.Errorf("expected reloaded backend %q, got %q", "sqlite", got)
	}
}

func TestReloadConfig_ValidationFailure(t *testing.T) {
	resetGlobal()

	path := writeConfig(t, "store:\n  backend: memory\n")
	if err := Initialize(path); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	invalid := writeConfig(t, "store:\n  backend: postgres\n")
	if err := ReloadConfig(invalid); err == nil {
		t.Fatal("expected reload to fail")
	}

	if got := GetConfig().Store.Backend; got != "memory" {
		t.Errorf("expected original config to be kept, got backend %q", got)
	}
}

func TestMustGetConfig(t *testing.T) {
	resetGlobal()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected MustGetConfig to panic before initialization")
		}
	}()
	MustGetConfig()
}

func TestMustGetConfig_AfterInitialize(t *testing.T) {
	resetGlobal()
	SetConfig(Default())

	if MustGetConfig() == nil {
		t.Error("expected non-nil config")
	}
}
