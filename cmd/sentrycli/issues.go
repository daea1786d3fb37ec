package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tinytelemetry/sentrycli/internal/duckdb"
	"github.com/tinytelemetry/sentrycli/internal/report"
)

type issuesOptions struct {
	format string
	delete string
}

var issuesOpts issuesOptions

func init() {
	rootCmd.AddCommand(issuesCmd)
	issuesCmd.Flags().StringVar(&issuesOpts.format, "format", string(report.FormatText), "output format (text|json|yaml|csv)")
	issuesCmd.Flags().StringVar(&issuesOpts.delete, "delete", "", "remove the cached events of this issue")
}

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "List issues in the local event cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIssues(cmd.OutOrStdout(), issuesOpts)
	},
}

func runIssues(w io.Writer, opts issuesOptions) error {
	f, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("opening event cache: %w", err)
	}
	defer store.Close()

	if opts.delete != "" {
		n, err := store.DeleteIssue(opts.delete)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Deleted %d events of issue %s\n", n, opts.delete)
		return nil
	}

	issues, err := store.Issues()
	if err != nil {
		return err
	}
	return report.RenderIssues(w, issues, f)
}
