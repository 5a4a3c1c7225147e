package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/exportable/pkg/cli"
	"mercator-hq/exportable/pkg/config"
	"mercator-hq/exportable/pkg/export"
	"mercator-hq/exportable/pkg/pipeline"
	"mercator-hq/exportable/pkg/record"
	"mercator-hq/exportable/pkg/telemetry/health"
	"mercator-hq/exportable/pkg/telemetry/logging"
)

// readinessTimeout bounds each readiness check.
const readinessTimeout = 2 * time.Second

var scheduleFlags struct {
	metricsAddr string
	watch       bool
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run export jobs on their schedules",
	Long: `Run the configured jobs on their cron schedules until interrupted.

With --watch (or watch.enabled) a job reading a file also runs whenever
that file changes. With --metrics-addr (or telemetry.metrics.enabled)
Prometheus metrics are served while the scheduler runs.

Examples:
  # Run scheduled jobs
  exportable schedule --config exportable.yaml

  # Also export on input changes and serve metrics
  exportable schedule --config exportable.yaml --watch --metrics-addr 127.0.0.1:9090`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleFlags.metricsAddr, "metrics-addr", "", "serve metrics on this address")
	scheduleCmd.Flags().BoolVar(&scheduleFlags.watch, "watch", false, "run file jobs when their input changes")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	env, err := setup(func(cfg *config.Config) {
		if scheduleFlags.metricsAddr != "" {
			cfg.Telemetry.Metrics.Enabled = true
			cfg.Telemetry.Metrics.Address = scheduleFlags.metricsAddr
		}
		if scheduleFlags.watch {
			cfg.Watch.Enabled = true
		}
	})
	if err != nil {
		return err
	}
	defer env.close()

	ctx, _ := logging.NewSession(commandContext(cmd))
	logger := env.logger.WithContext(ctx)

	scheduler := pipeline.NewScheduler()
	watched := make(map[string][]*pipeline.Job)
	var inputs []string
	var storeTypes []*record.Type
	for _, jc := range env.cfg.Jobs {
		if jc.Schedule == "" && (!env.cfg.Watch.Enabled || jc.FromStore || jc.Input == export.Stdout) {
			continue
		}
		job, err := env.buildJob(jc, commandOut(cmd))
		if err != nil {
			return err
		}
		job.Logger = logger.With("type", jc.Type).Slog()
		switch src := job.Source.(type) {
		case *pipeline.FileSource:
			if src.Path != export.Stdout {
				inputs = append(inputs, src.Path)
			}
		case *pipeline.StoreSource:
			storeTypes = append(storeTypes, src.Type)
		}

		if jc.Schedule != "" {
			if err := scheduler.Add(jc.Schedule, job); err != nil {
				return cli.NewConfigError(jc.Name, err.Error())
			}
		}
		if env.cfg.Watch.Enabled && !jc.FromStore && jc.Input != export.Stdout {
			path, err := filepath.Abs(jc.Input)
			if err != nil {
				return fmt.Errorf("job %s: %w", jc.Name, err)
			}
			watched[path] = append(watched[path], job)
		}
	}
	if len(env.cfg.ScheduledJobs()) == 0 && len(watched) == 0 {
		return cli.NewConfigError("jobs", "no scheduled or watched jobs configured")
	}

	if mc := env.cfg.Telemetry.Metrics; mc.Enabled {
		checker := readiness(env, scheduler, inputs, storeTypes)
		addr, err := env.metrics.Serve(ctx, mc.Address, mc.Path, checker.Mount)
		if err != nil {
			return err
		}
		logger.Info("serving metrics", "address", addr.String(), "path", mc.Path,
			"probes", []string{health.LivenessPath, health.ReadinessPath})
	}

	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()
	for _, jc := range env.cfg.ScheduledJobs() {
		if next := scheduler.NextRun(jc.Name); next != nil {
			logger.Info("job scheduled", "job", jc.Name, "schedule", jc.Schedule, "next_run", next)
		}
	}

	if len(watched) > 0 {
		return watchInputs(ctx, env, watched)
	}
	<-ctx.Done()
	return nil
}

// readiness checks the scheduler, the job inputs and the store.
func readiness(env *environment, scheduler *pipeline.Scheduler, inputs []string, storeTypes []*record.Type) *health.Checker {
	checker := health.New(readinessTimeout)
	if len(env.cfg.ScheduledJobs()) > 0 {
		checker.RegisterCheck("scheduler", func(ctx context.Context) error {
			if !scheduler.IsRunning() {
				return errors.New("scheduler is not running")
			}
			return nil
		})
	}
	if len(inputs) > 0 {
		checker.RegisterCheck("inputs", func(ctx context.Context) error {
			var errs []error
			for _, path := range inputs {
				if _, err := os.Stat(path); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		})
	}
	if len(storeTypes) > 0 && env.store != nil {
		st := env.store
		checker.RegisterCheck("store", func(ctx context.Context) error {
			for _, typ := range storeTypes {
				if _, err := st.Count(ctx, typ); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return checker
}

// watchInputs runs the jobs of a file whenever it changes, until ctx is
// done.
func watchInputs(ctx context.Context, env *environment, watched map[string][]*pipeline.Job) error {
	paths := make([]string, 0, len(watched))
	for path := range watched {
		paths = append(paths, path)
	}

	watcher, err := pipeline.NewWatcher(&pipeline.WatcherConfig{
		Paths:            paths,
		DebounceInterval: env.cfg.Watch.Debounce,
		SkipHidden:       true,
	}, env.logger.Slog())
	if err != nil {
		return err
	}
	defer watcher.Stop()

	return watcher.Watch(ctx, func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		for _, job := range watched[abs] {
			if _, err := job.Run(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
