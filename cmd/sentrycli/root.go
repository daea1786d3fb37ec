package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinytelemetry/sentrycli/internal/model"
)

var (
	configPath string
	cfg        appConfig
)

var rootCmd = &cobra.Command{
	Use:           "sentrycli",
	Short:         "Fetch Sentry issue events and aggregate them locally",
	Long:          "Downloads the events of a Sentry issue and groups them by headers, context, params, stack variables, tags, breadcrumbs or creation time.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $HOME/.config/sentrycli/config.yml)")
}

// Execute runs the root command and exits 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if model.IsUserError(err) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
