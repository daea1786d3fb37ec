package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinytelemetry/sentrycli/internal/duckdb"
	"github.com/tinytelemetry/sentrycli/internal/eventfile"
	"github.com/tinytelemetry/sentrycli/internal/model"
	"github.com/tinytelemetry/sentrycli/internal/preferences"
	"github.com/tinytelemetry/sentrycli/internal/sentryapi"
)

type queryOptions struct {
	issue      string
	host       string
	apiKey     string
	apiVersion int
	since      string
	to         string
	limit      int
	output     string
	format     string
	store      bool
}

var queryOpts queryOptions

func init() {
	rootCmd.AddCommand(queryCmd)
	f := queryCmd.Flags()
	f.StringVar(&queryOpts.host, "host", "", "Sentry host, e.g. https://sentry.io (saved for later runs)")
	f.StringVar(&queryOpts.apiKey, "api-key", "", "Sentry API key (saved for later runs)")
	f.IntVar(&queryOpts.apiVersion, "api-version", defaultAPIVersion, "Sentry API version")
	f.StringVar(&queryOpts.since, "since", "", "fetch events created at or after this time (yyyy-mm-dd[Thh:mm:ss])")
	f.StringVar(&queryOpts.to, "to", "", "fetch events created at or before this time (default now)")
	f.IntVar(&queryOpts.limit, "limit", 0, "maximum number of events, 0 for all")
	f.StringVarP(&queryOpts.output, "output", "o", "", "output file (default <issue>.<format>)")
	f.StringVar(&queryOpts.format, "format", string(eventfile.JSON), "output file format (json|jsonl)")
	f.BoolVar(&queryOpts.store, "store", false, "also save the events into the local cache")
}

var queryCmd = &cobra.Command{
	Use:   "query ISSUE",
	Short: "Fetch the events of an issue",
	Long:  "Downloads every event of a Sentry issue, newest first, and writes them to a file for the group and breadcrumbs commands.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := queryOpts
		opts.issue = args[0]
		if !cmd.Flags().Changed("api-version") {
			opts.apiVersion = cfg.APIVersion
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runQuery(ctx, opts)
	},
}

func runQuery(ctx context.Context, opts queryOptions) error {
	window, err := parseWindow(opts.since, opts.to, time.Now())
	if err != nil {
		return err
	}
	format, err := eventfile.ParseFormat(opts.format)
	if err != nil {
		return model.AsUserError(err)
	}
	if opts.limit < 0 {
		return model.UserErrorf("--limit must not be negative, got %d", opts.limit)
	}

	prefs, err := preferences.Open(cfg.PrefsPath)
	if err != nil {
		return err
	}
	host, err := resolvePreference(prefs, preferences.KeyHost, opts.host, "--host")
	if err != nil {
		return err
	}
	apiKey, err := resolvePreference(prefs, preferences.KeyAPIKey, opts.apiKey, "--api-key")
	if err != nil {
		return err
	}

	client, err := sentryapi.New(sentryapi.Config{
		Host:       host,
		APIKey:     apiKey,
		APIVersion: opts.apiVersion,
		AuthScheme: cfg.AuthScheme,
		Timeout:    cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}

	ok, err := client.CheckAPIKey(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	events, fetchErr := client.FetchIssueEvents(ctx, opts.issue, opts.limit, window)
	if fetchErr != nil && len(events) == 0 {
		return fetchErr
	}
	if len(events) == 0 {
		log.Printf("query: no events found for issue %s", opts.issue)
		return nil
	}
	log.Printf("query: fetched %d events of issue %s", len(events), opts.issue)

	output := opts.output
	if output == "" {
		output = fmt.Sprintf("%s.%s", opts.issue, format)
	}
	if err := eventfile.Save(output, events, format); err != nil {
		return err
	}
	log.Printf("query: events saved to %s", output)

	if opts.store {
		if err := storeEvents(opts.issue, events); err != nil {
			return err
		}
	}

	if fetchErr != nil {
		return fmt.Errorf("fetch stopped after %d events: %w", len(events), fetchErr)
	}
	return nil
}

// resolvePreference prefers an explicit flag value, persisting it, and falls
// back to the saved value.
func resolvePreference(prefs *preferences.Store, key, value, flag string) (string, error) {
	if value != "" {
		if err := prefs.Set(key, value); err != nil {
			log.Printf("query: could not save %s: %v", key, err)
		}
		return value, nil
	}
	if saved := prefs.Get(key); saved != "" {
		return saved, nil
	}
	return "", model.UserErrorf("%s is required (none saved in %s)", flag, prefs.Path())
}

func storeEvents(issue string, events []json.RawMessage) error {
	store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("opening event cache: %w", err)
	}
	defer store.Close()

	n, err := store.SaveEvents(issue, events)
	if err != nil {
		return err
	}
	log.Printf("query: cached %d events of issue %s in %s", n, issue, cfg.DBPath)
	return nil
}
