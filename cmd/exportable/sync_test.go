package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/exportable/pkg/cli"
)

func TestRunSyncSnapshot(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	syncFlags.input = "testdata/tanks.jsonl"
	syncFlags.snapshot = filepath.Join(dir, "tanks")

	cmd, out := newTestCommand(context.Background(), "")
	if err := runSync(cmd, []string{"tank"}); err != nil {
		t.Fatalf("runSync() error = %v", err)
	}
	if got := out.String(); !strings.HasPrefix(got, "tank: 3 records, 3 added, 0 updated\n") {
		t.Errorf("summary = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "tanks.json")); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}

	syncFlags.input = "testdata/updates.jsonl"
	cmd, out = newTestCommand(context.Background(), "")
	if err := runSync(cmd, []string{"tank"}); err != nil {
		t.Fatalf("second runSync() error = %v", err)
	}
	want := "tank: 4 records, 1 added, 1 updated\n  + 4\n  ~ 2\n"
	if got := out.String(); got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestRunSyncDryRunJSON(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	syncFlags.input = "testdata/tanks.jsonl"
	syncFlags.snapshot = filepath.Join(dir, "tanks")
	syncFlags.dryRun = true
	syncFlags.format = "json"

	cmd, out := newTestCommand(context.Background(), "")
	if err := runSync(cmd, []string{"tank"}); err != nil {
		t.Fatalf("runSync() error = %v", err)
	}

	var summary syncSummary
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("summary is not JSON: %v\n%s", err, out.String())
	}
	if !summary.DryRun || summary.Total != 3 || len(summary.Added) != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Snapshot != filepath.Join(dir, "tanks.json") {
		t.Errorf("summary.Snapshot = %q", summary.Snapshot)
	}
	if _, err := os.Stat(filepath.Join(dir, "tanks.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run wrote the snapshot, stat error = %v", err)
	}
}

func TestRunSyncStoreThenExport(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	t.Setenv("EXPORTABLE_STORE_BACKEND", "sqlite")
	t.Setenv("EXPORTABLE_STORE_SQLITE_DRIVER", "sqlite")
	t.Setenv("EXPORTABLE_STORE_SQLITE_PATH", filepath.Join(dir, "records.db"))

	syncFlags.input = "testdata/tanks.jsonl"
	syncFlags.toStore = true
	cmd, _ := newTestCommand(context.Background(), "")
	if err := runSync(cmd, []string{"tank"}); err != nil {
		t.Fatalf("runSync() error = %v", err)
	}

	exportFlags.fromStore = true
	exportFlags.outputs = []string{filepath.Join(dir, "tanks.csv")}
	if err := runExport(cmd, []string{"tank"}); err != nil {
		t.Fatalf("runExport() error = %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "tanks.csv")); got != tanksCSV {
		t.Errorf("tanks.csv = %q, want %q", got, tanksCSV)
	}
}

func TestRunSyncErrors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		args     []string
		wantCode int
	}{
		{
			name:     "nothing to update",
			setup:    func() { syncFlags.input = "testdata/tanks.jsonl" },
			args:     []string{"tank"},
			wantCode: cli.ExitConfig,
		},
		{
			name: "invalid summary format",
			setup: func() {
				syncFlags.dryRun = true
				syncFlags.format = "yaml"
			},
			args:     []string{"tank"},
			wantCode: cli.ExitConfig,
		},
		{
			name: "unknown via type",
			setup: func() {
				syncFlags.dryRun = true
				syncFlags.via = "plane"
			},
			args:     []string{"tank"},
			wantCode: cli.ExitConfig,
		},
		{
			name: "missing input",
			setup: func() {
				syncFlags.dryRun = true
				syncFlags.input = "testdata/missing.jsonl"
			},
			args:     []string{"tank"},
			wantCode: cli.ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			tt.setup()

			cmd, _ := newTestCommand(context.Background(), "")
			err := runSync(cmd, tt.args)
			if err == nil {
				t.Fatal("runSync() should fail")
			}
			if code := cli.ExitCode(err); code != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d (err = %v)", code, tt.wantCode, err)
			}
		})
	}
}
