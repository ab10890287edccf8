/*
Package cli provides command-line utilities for the storage-helper command.

Output Formatting:

Command results are printed as text, JSON or CSV. Results that implement
Tabular render as aligned columns in text and as rows in CSV; JSON encodes
the result value itself:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, cli.RunReport{Summary: summary}); err != nil {
		return err
	}

Progress Reporting:

DeletionProgress observes a cleaning run and draws a bar on stderr while
packages are deleted:

	progress := cli.NewDeletionProgress(os.Stderr)
	cleaner := retention.NewCleaner(client, client, engine, mode,
		retention.WithObserver(progress))

Exit Codes:

ExitCode maps command errors to process exit codes: 2 for configuration
errors, 3 when some deletions failed and 1 for anything else.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
