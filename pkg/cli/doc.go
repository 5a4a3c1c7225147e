/*
Package cli provides command-line interface utilities for exportable.

The cli package includes output formatters, a progress reporter, exit code
mapping and signal handling used by the exportable command.

Output Formatting:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(0) // unknown total: running row count
	progress.Update(rows)
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

	os.Exit(cli.ExitCode(err))
*/
package cli
