package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/exportable/pkg/cli"
	"mercator-hq/exportable/pkg/config"
	"mercator-hq/exportable/pkg/telemetry/logging"
)

var runCmd = &cobra.Command{
	Use:   "run [JOB...]",
	Short: "Run configured export jobs once",
	Long: `Run the named jobs of the configuration file once, in order. Without
arguments every configured job runs. A failing job does not stop the
others; all failures are reported.

Examples:
  # Run every job
  exportable run --config exportable.yaml

  # Run one job
  exportable run nightly-tanks --config exportable.yaml`,
	RunE: runJobs,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.close()

	jobs, err := selectJobs(env.cfg, args)
	if err != nil {
		return err
	}

	ctx, _ := logging.NewSession(commandContext(cmd))
	var errs []error
	for _, jc := range jobs {
		job, err := env.buildJob(jc, commandOut(cmd))
		if err != nil {
			return err
		}
		jctx := logging.WithType(logging.WithJob(ctx, jc.Name), jc.Type)
		job.Logger = env.logger.WithContext(jctx).Slog()

		counter, err := job.Run(jctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := rowErrors(counter); err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", jc.Name, err))
		}
	}
	return errors.Join(errs...)
}

// selectJobs returns the named jobs, or every job when names is empty.
func selectJobs(cfg *config.Config, names []string) ([]config.JobConfig, error) {
	if len(names) == 0 {
		if len(cfg.Jobs) == 0 {
			return nil, cli.NewConfigError("jobs", "no jobs configured")
		}
		return cfg.Jobs, nil
	}
	jobs := make([]config.JobConfig, 0, len(names))
	for _, name := range names {
		jc, ok := cfg.Job(name)
		if !ok {
			return nil, cli.NewConfigError("jobs", fmt.Sprintf("unknown job %q", name))
		}
		jobs = append(jobs, *jc)
	}
	return jobs, nil
}
