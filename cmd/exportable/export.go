package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/exportable/pkg/cli"
	"mercator-hq/exportable/pkg/export"
	"mercator-hq/exportable/pkg/pipeline"
	"mercator-hq/exportable/pkg/record"
	"mercator-hq/exportable/pkg/stats"
	"mercator-hq/exportable/pkg/telemetry/logging"
)

var exportFlags struct {
	input     string
	outputs   []string
	format    string
	force     bool
	appendTo  bool
	via       string
	fromStore bool
	progress  bool
}

var exportCmd = &cobra.Command{
	Use:   "export TYPE",
	Short: "Export records to CSV, JSON or text",
	Long: `Export the records of TYPE to one or more destinations.

Records are read once from line-delimited JSON (or the record store) and
written to every destination in input order. A recognized file extension
selects the format of a destination; otherwise --format applies and its
extension is appended. Lines and rows that fail are logged and skipped.

Examples:
  # Export to CSV and JSON in one pass
  exportable export tank -t types.yaml -i tanks.jsonl -o tanks.csv -o tanks.json

  # Read legacy records and convert them
  exportable export tank -t types.yaml -i legacy.jsonl --via legacy_tank -o tanks.csv

  # Print text rows from the store
  exportable export tank -t types.yaml --from-store`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFlags.input, "input", "i", "", "line-delimited JSON input (default stdin)")
	exportCmd.Flags().StringArrayVarP(&exportFlags.outputs, "output", "o", nil, "destination path, repeatable (- for stdout)")
	exportCmd.Flags().StringVarP(&exportFlags.format, "format", "f", "", "output format (txt, json, csv)")
	exportCmd.Flags().BoolVar(&exportFlags.force, "force", false, "overwrite existing destinations")
	exportCmd.Flags().BoolVar(&exportFlags.appendTo, "append", false, "append to existing destinations")
	exportCmd.Flags().StringVar(&exportFlags.via, "via", "", "read input lines as this type and convert them")
	exportCmd.Flags().BoolVar(&exportFlags.fromStore, "from-store", false, "export the records held in the store")
	exportCmd.Flags().BoolVar(&exportFlags.progress, "progress", false, "report progress on stderr")
}

func runExport(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return cli.NewConfigError("args", "exactly one record type is required")
	}

	env, err := setup()
	if err != nil {
		return err
	}
	defer env.close()

	typ, err := env.types.Get(args[0])
	if err != nil {
		return err
	}

	format := exportFlags.format
	if format == "" {
		format = env.cfg.Export.Format
	}
	outputs := exportFlags.outputs
	if len(outputs) == 0 {
		outputs = []string{export.Stdout}
	}
	targets := make([]export.Options, 0, len(outputs))
	for _, path := range outputs {
		opts, err := env.target(path, format,
			exportFlags.force || env.cfg.Export.Force,
			exportFlags.appendTo || env.cfg.Export.Append,
			commandOut(cmd))
		if err != nil {
			return err
		}
		targets = append(targets, opts)
	}

	src, err := env.source(typ, exportFlags.input, exportFlags.via, exportFlags.fromStore, commandIn(cmd))
	if err != nil {
		return err
	}
	var progress cli.ProgressReporter
	if exportFlags.progress {
		progress = cli.NewProgressReporter(commandErr(cmd))
		src = &progressSource{Source: src, progress: progress}
	}

	ctx, _ := logging.NewSession(commandContext(cmd))
	ctx = logging.WithType(ctx, typ.Name())
	job := &pipeline.Job{
		Name:    "export",
		Source:  src,
		Targets: targets,
		Logger:  env.logger.WithContext(ctx).Slog(),
		Metrics: env.metrics,
	}

	counter, err := job.Run(ctx)
	if progress != nil {
		if err != nil {
			progress.Error(err)
		} else {
			progress.Finish()
		}
	}
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return rowErrors(counter)
}

// rowErrors reports the rows that failed to render or write.
func rowErrors(counter *stats.EventCounter) error {
	if n := counter.ErrorCount(); n > 0 {
		return fmt.Errorf("%d rows failed: %s", n, counter.String())
	}
	return nil
}

// progressSource reports every record it passes on.
type progressSource struct {
	pipeline.Source
	progress cli.ProgressReporter
}

func (s *progressSource) Open(ctx context.Context) (<-chan *record.Record, <-chan error) {
	records, errs := s.Source.Open(ctx)
	out := make(chan *record.Record)
	s.progress.Start(0)
	go func() {
		defer close(out)
		var n int64
		for rec := range records {
			select {
			case out <- rec:
				n++
				s.progress.Update(n)
			case <-ctx.Done():
				for range records {
				}
				return
			}
		}
	}()
	return out, errs
}
