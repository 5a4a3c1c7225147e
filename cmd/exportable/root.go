package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/exportable/pkg/cli"
)

var (
	// Global flags
	cfgFile   string
	typeFiles []string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "exportable",
	Short: "Exportable - typed record export toolkit",
	Long: `Exportable reads typed records and writes them to CSV, JSON and text files.

Record types are declared in YAML type files. Each type names its fields,
their aliases and defaults, the identity index and the conversions from
other types. Records can be:
  - Exported to one or more destinations in a single pass
  - Merged into keyed snapshot collections
  - Persisted in a SQLite record store
  - Exported on cron schedules or when input files change

Without --config the built-in defaults are used, with EXPORTABLE_*
environment overrides applied.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. The process exit code is derived from the
// returned error.
func Execute() {
	ctx, stop := cli.SetupSignalHandler(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringArrayVarP(&typeFiles, "types", "t", nil, "record type definition file, repeatable (overrides types.files)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
