package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "sentrycli - Sentry event aggregation\n")
		fmt.Fprintf(w, "  Version:    %s\n", version)
		fmt.Fprintf(w, "  Commit:     %s\n", commit)
		fmt.Fprintf(w, "  Built:      %s\n", buildTime)
		fmt.Fprintf(w, "  Go version: %s\n", goVersion)
	},
}
