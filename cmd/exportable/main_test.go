package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// resetFlags restores every command flag to its default and points the
// type files at testdata.
func resetFlags(t *testing.T) {
	t.Helper()
	cfgFile = ""
	typeFiles = []string{"testdata/types.yaml"}
	verbose = false

	exportFlags.input = ""
	exportFlags.outputs = nil
	exportFlags.format = ""
	exportFlags.force = false
	exportFlags.appendTo = false
	exportFlags.via = ""
	exportFlags.fromStore = false
	exportFlags.progress = false

	syncFlags.input = ""
	syncFlags.via = ""
	syncFlags.snapshot = ""
	syncFlags.toStore = false
	syncFlags.dryRun = false
	syncFlags.format = "text"

	scheduleFlags.metricsAddr = ""
	scheduleFlags.watch = false

	schemaFlags.format = "cue"

	// Keep test logs quiet and out of the working directory.
	t.Setenv("EXPORTABLE_TELEMETRY_LOGGING_LEVEL", "error")
	t.Setenv("EXPORTABLE_STORE_BACKEND", "memory")
}

// newTestCommand returns a command whose output is captured and whose
// input is stdin.
func newTestCommand(ctx context.Context, stdin string) (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetContext(ctx)
	return cmd, &out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func absTestdata(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return path
}

// writeConfig writes a configuration file into dir and returns its path.
func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "exportable.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "exportable" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "exportable")
	}

	want := []string{"export", "run", "schedule", "schema", "sync", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	for _, flag := range []string{"config", "types", "verbose"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag %q not defined", flag)
		}
	}
}
