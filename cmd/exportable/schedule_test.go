package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/exportable/pkg/cli"
	"mercator-hq/exportable/pkg/pipeline"
	"mercator-hq/exportable/pkg/telemetry/health"
)

func TestRunScheduleNoJobs(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	// The job has no schedule and watching is off.
	cfgFile = writeConfig(t, dir, jobsConfig(t, dir))
	typeFiles = nil

	cmd, _ := newTestCommand(context.Background(), "")
	err := runSchedule(cmd, nil)
	if code := cli.ExitCode(err); code != cli.ExitConfig {
		t.Errorf("ExitCode() = %d, want %d (err = %v)", code, cli.ExitConfig, err)
	}
}

func TestRunScheduleUntilCancelled(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	cfgFile = writeConfig(t, dir, fmt.Sprintf(`
types:
  files: [%q]
jobs:
  - name: hourly
    type: tank
    input: %q
    schedule: "@hourly"
    targets:
      - path: %q
`, absTestdata(t, "types.yaml"), absTestdata(t, "tanks.jsonl"), filepath.Join(dir, "tanks.csv")))
	typeFiles = nil
	scheduleFlags.metricsAddr = "127.0.0.1:0"

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	cmd, _ := newTestCommand(ctx, "")
	if err := runSchedule(cmd, nil); err != nil {
		t.Fatalf("runSchedule() error = %v", err)
	}
}

func TestRunScheduleWatch(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "tanks.jsonl")
	if err := os.WriteFile(input, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "tanks.csv")
	cfgFile = writeConfig(t, dir, fmt.Sprintf(`
types:
  files: [%q]
watch:
  debounce: 20ms
jobs:
  - name: on-change
    type: tank
    input: %q
    targets:
      - path: %q
        force: true
`, absTestdata(t, "types.yaml"), input, output))
	typeFiles = nil
	scheduleFlags.watch = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd, _ := newTestCommand(ctx, "")
	done := make(chan error, 1)
	go func() { done <- runSchedule(cmd, nil) }()

	// Give the watcher time to start.
	time.Sleep(200 * time.Millisecond)
	data, err := os.ReadFile("testdata/tanks.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(input, data, 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if got, err := os.ReadFile(output); err == nil && string(got) == tanksCSV {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("watched job did not export the changed input")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runSchedule() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runSchedule() did not return after cancellation")
	}
}

func TestReadinessChecks(t *testing.T) {
	resetFlags(t)
	env, err := setup()
	if err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	defer env.close()

	dir := t.TempDir()
	present := filepath.Join(dir, "present.jsonl")
	if err := os.WriteFile(present, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	checker := readiness(env, pipeline.NewScheduler(), []string{present}, nil)
	if status := checker.Readiness(context.Background()); status.Status != health.StatusReady {
		t.Errorf("Readiness() = %+v, want ready", status)
	}

	checker = readiness(env, pipeline.NewScheduler(), []string{present, filepath.Join(dir, "missing.jsonl")}, nil)
	status := checker.Readiness(context.Background())
	if status.Status != health.StatusDegraded {
		t.Errorf("Readiness() = %+v, want degraded", status)
	}
	if status.Checks["inputs"].Status != health.StatusUnhealthy {
		t.Errorf("inputs check = %+v, want unhealthy", status.Checks["inputs"])
	}
}
