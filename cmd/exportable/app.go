package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mercator-hq/exportable/pkg/cli"
	"mercator-hq/exportable/pkg/config"
	"mercator-hq/exportable/pkg/export"
	"mercator-hq/exportable/pkg/pipeline"
	"mercator-hq/exportable/pkg/record"
	"mercator-hq/exportable/pkg/schema"
	"mercator-hq/exportable/pkg/store"
	"mercator-hq/exportable/pkg/telemetry/logging"
	"mercator-hq/exportable/pkg/telemetry/metrics"
	"mercator-hq/exportable/pkg/telemetry/tracing"
)

// environment is the state shared by the commands of one invocation.
type environment struct {
	cfg     *config.Config
	logger  *logging.Logger
	types   *schema.Registry
	metrics *metrics.Collector
	tracer  *tracing.Tracer

	store store.Store
}

// setup loads the configuration, installs the logger and loads the record
// types. Overrides are applied to the configuration before anything is
// built from it.
func setup(overrides ...func(*config.Config)) (*environment, error) {
	if err := config.ReloadConfig(cfgFile); err != nil {
		return nil, cli.NewConfigError("config", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	for _, override := range overrides {
		override(cfg)
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	if verbose {
		_ = logger.SetLevel("debug")
	}
	logger.SetDefault()

	files := cfg.Types.Files
	if len(typeFiles) > 0 {
		files = typeFiles
	}
	if len(files) == 0 {
		return nil, cli.NewConfigError("types.files", "no record type files (use --types or types.files)")
	}
	validator, err := schema.NewValidator(cfg.Types.Validator)
	if err != nil {
		return nil, cli.NewConfigError("types.validator", err.Error())
	}
	types, err := schema.LoadFiles(files, validator)
	if err != nil {
		return nil, err
	}
	logger.Debug("record types loaded", "types", types.Names(), "validator", cfg.Types.Validator)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}
	if tracer.Enabled() {
		logger.Debug("tracing enabled", "endpoint", cfg.Telemetry.Tracing.Endpoint, "sampler", cfg.Telemetry.Tracing.Sampler)
	}

	return &environment{
		cfg:     cfg,
		logger:  logger,
		types:   types,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
		tracer:  tracer,
	}, nil
}

// close releases the store, flushes pending spans and closes the log file.
func (e *environment) close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Warn("failed to close store", "error", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Telemetry.Tracing.Timeout)
	defer cancel()
	if err := e.tracer.Shutdown(ctx); err != nil {
		e.logger.Warn("failed to flush spans", "error", err)
	}
	_ = e.logger.Shutdown()
}

// openStore opens the configured store once per invocation.
func (e *environment) openStore() (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	sc := e.cfg.Store.SQLite
	st, err := store.Open(e.cfg.Store.Backend, &store.SQLiteConfig{
		Path:         sc.Path,
		Driver:       sc.Driver,
		MaxOpenConns: sc.MaxOpenConns,
		MaxIdleConns: sc.MaxIdleConns,
		WALMode:      sc.WAL(),
		BusyTimeout:  sc.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}
	e.store = st
	return st, nil
}

// source builds the record source of typ. An empty input reads stdin.
func (e *environment) source(typ *record.Type, input, via string, fromStore bool, stdin io.Reader) (pipeline.Source, error) {
	if fromStore {
		if input != "" || via != "" {
			return nil, cli.NewConfigError("from-store", "cannot be combined with an input file or --via")
		}
		st, err := e.openStore()
		if err != nil {
			return nil, err
		}
		return &pipeline.StoreSource{Store: st, Type: typ}, nil
	}

	var viaType *record.Type
	if via != "" {
		t, err := e.types.Get(via)
		if err != nil {
			return nil, err
		}
		viaType = t
	}
	if input == "" {
		input = export.Stdout
	}
	return &pipeline.FileSource{Path: input, Type: typ, Via: viaType, Stdin: stdin}, nil
}

// target builds the export options of one destination. Relative file paths
// are placed under the configured output directory; standard output
// defaults to text.
func (e *environment) target(path, format string, force, appendMode bool, stdout io.Writer) (export.Options, error) {
	opts := export.Options{
		Path:    path,
		Force:   force,
		Append:  appendMode,
		Metrics: e.metrics,
		Stdout:  stdout,
	}
	if format != "" {
		f, err := export.ParseFormat(format)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	} else if path == export.Stdout {
		opts.Format = export.FormatText
	}
	if path != export.Stdout && e.cfg.Export.OutputDir != "" && !filepath.IsAbs(path) {
		opts.Path = filepath.Join(e.cfg.Export.OutputDir, path)
	}
	return opts, nil
}

// buildJob turns a configured job into a pipeline job.
func (e *environment) buildJob(jc config.JobConfig, stdout io.Writer) (*pipeline.Job, error) {
	typ, err := e.types.Get(jc.Type)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jc.Name, err)
	}
	src, err := e.source(typ, jc.Input, jc.Via, jc.FromStore, nil)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jc.Name, err)
	}

	targets := make([]export.Options, 0, len(jc.Targets))
	for _, tc := range jc.Targets {
		opts, err := e.target(tc.Path, tc.Format, tc.Force, tc.Append, stdout)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", jc.Name, err)
		}
		targets = append(targets, opts)
	}

	return &pipeline.Job{
		Name:    jc.Name,
		Source:  src,
		Targets: targets,
		Logger:  e.logger.Slog(),
		Metrics: e.metrics,
	}, nil
}

// commandContext returns the context of cmd, or a background context for
// commands invoked without one.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func commandOut(cmd *cobra.Command) io.Writer {
	if cmd != nil {
		return cmd.OutOrStdout()
	}
	return os.Stdout
}

func commandErr(cmd *cobra.Command) io.Writer {
	if cmd != nil {
		return cmd.ErrOrStderr()
	}
	return os.Stderr
}

func commandIn(cmd *cobra.Command) io.Reader {
	if cmd != nil {
		return cmd.InOrStdin()
	}
	return os.Stdin
}
