package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/exportable/pkg/cli"
	"mercator-hq/exportable/pkg/pipeline"
	"mercator-hq/exportable/pkg/record"
	"mercator-hq/exportable/pkg/store"
	"mercator-hq/exportable/pkg/telemetry/logging"
)

var syncFlags struct {
	input    string
	via      string
	snapshot string
	toStore  bool
	dryRun   bool
	format   string
}

var syncCmd = &cobra.Command{
	Use:   "sync TYPE",
	Short: "Merge records into a snapshot collection",
	Long: `Merge incoming records of TYPE into a keyed snapshot collection.

Records are matched by identity. New records are added and matching records
are merged field by field; unchanged records are left alone. The snapshot is
rewritten as JSON and, with --store, every added or updated record is saved
to the record store.

Examples:
  # Merge updates into tanks.json
  exportable sync tank -t types.yaml -i updates.jsonl --snapshot tanks

  # Show what would change
  exportable sync tank -t types.yaml -i updates.jsonl --snapshot tanks --dry-run

  # Keep the store current
  exportable sync tank -t types.yaml -i updates.jsonl --store`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVarP(&syncFlags.input, "input", "i", "", "line-delimited JSON input (default stdin)")
	syncCmd.Flags().StringVar(&syncFlags.via, "via", "", "read input lines as this type and convert them")
	syncCmd.Flags().StringVar(&syncFlags.snapshot, "snapshot", "", "snapshot collection file")
	syncCmd.Flags().BoolVar(&syncFlags.toStore, "store", false, "save added and updated records to the store")
	syncCmd.Flags().BoolVar(&syncFlags.dryRun, "dry-run", false, "report the changes without writing")
	syncCmd.Flags().StringVar(&syncFlags.format, "format", "text", "summary format (text, json)")
}

// syncSummary is the printed result of a sync.
type syncSummary struct {
	Type     string   `json:"type"`
	Snapshot string   `json:"snapshot,omitempty"`
	Total    int      `json:"total"`
	Added    []string `json:"added"`
	Updated  []string `json:"updated"`
	DryRun   bool     `json:"dry_run,omitempty"`
}

func (s syncSummary) TextLines() []string {
	lines := []string{fmt.Sprintf("%s: %d records, %d added, %d updated", s.Type, s.Total, len(s.Added), len(s.Updated))}
	for _, k := range s.Added {
		lines = append(lines, "  + "+k)
	}
	for _, k := range s.Updated {
		lines = append(lines, "  ~ "+k)
	}
	if s.DryRun {
		lines = append(lines, "dry run: nothing written")
	}
	return lines
}

func runSync(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return cli.NewConfigError("args", "exactly one record type is required")
	}
	outFormat, err := cli.ParseOutputFormat(syncFlags.format)
	if err != nil {
		return err
	}
	if syncFlags.snapshot == "" && !syncFlags.toStore && !syncFlags.dryRun {
		return cli.NewConfigError("snapshot", "nothing to update (use --snapshot, --store or --dry-run)")
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
	src, err := env.source(typ, syncFlags.input, syncFlags.via, false, commandIn(cmd))
	if err != nil {
		return err
	}
	var st store.Store
	if syncFlags.toStore {
		if st, err = env.openStore(); err != nil {
			return err
		}
	}

	ctx, _ := logging.NewSession(commandContext(cmd))
	ctx = logging.WithType(ctx, typ.Name())
	result, err := pipeline.Sync(ctx, pipeline.SyncOptions{
		Type:     typ,
		Snapshot: syncFlags.snapshot,
		Incoming: src,
		Store:    st,
		DryRun:   syncFlags.dryRun,
		Logger:   env.logger.WithContext(ctx).Slog(),
		Metrics:  env.metrics,
	})
	if err != nil {
		return cli.NewCommandError("sync", err)
	}

	summary := syncSummary{
		Type:    typ.Name(),
		Total:   result.Collection.Len(),
		Added:   keyStrings(result.Added),
		Updated: keyStrings(result.Updated),
		DryRun:  syncFlags.dryRun,
	}
	if syncFlags.snapshot != "" {
		summary.Snapshot = record.WithJSONSuffix(syncFlags.snapshot)
	}
	return cli.NewFormatter(outFormat).FormatTo(commandOut(cmd), summary)
}

func keyStrings(keys []record.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
