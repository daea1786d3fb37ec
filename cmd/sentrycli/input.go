package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinytelemetry/sentrycli/internal/duckdb"
	"github.com/tinytelemetry/sentrycli/internal/event"
	"github.com/tinytelemetry/sentrycli/internal/eventfile"
	"github.com/tinytelemetry/sentrycli/internal/model"
	"github.com/tinytelemetry/sentrycli/internal/timestamp"
)

// inputOptions selects where the events of an analysis come from: an
// event file given as argument or an issue in the local cache.
type inputOptions struct {
	path  string
	issue string
	since string
	to    string
}

func addInputFlags(cmd *cobra.Command, in *inputOptions) {
	cmd.Flags().StringVar(&in.issue, "issue", "", "read events of this issue from the local cache instead of a file")
	cmd.Flags().StringVar(&in.since, "since", "", "only events created at or after this time (yyyy-mm-dd[Thh:mm:ss])")
	cmd.Flags().StringVar(&in.to, "to", "", "only events created at or before this time (yyyy-mm-dd[Thh:mm:ss])")
}

func (in *inputOptions) setArgs(args []string) {
	if len(args) > 0 {
		in.path = args[0]
	}
}

func (in inputOptions) label() string {
	if in.issue != "" {
		return "issue " + in.issue
	}
	return in.path
}

// load reads the raw events and wraps them in views. Window bounds apply
// to both sources; undated events are always kept.
func (in inputOptions) load() ([]*event.View, error) {
	if (in.path == "") == (in.issue == "") {
		return nil, model.UserErrorf("give either an event file or --issue")
	}
	window, err := parseWindow(in.since, in.to, time.Time{})
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if in.issue != "" {
		raw, err = loadCached(in.issue, window)
	} else {
		raw, err = eventfile.Load(in.path)
	}
	if err != nil {
		return nil, err
	}

	views, err := event.NewViews(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.label(), err)
	}
	if in.path != "" && !window.IsZero() {
		views = filterViews(views, window)
	}
	if len(views) == 0 {
		log.Printf("No events to analyze")
	}
	return views, nil
}

func loadCached(issue string, window model.Window) ([]json.RawMessage, error) {
	store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return nil, fmt.Errorf("opening event cache: %w", err)
	}
	defer store.Close()

	found, err := store.HasIssue(issue)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, model.UserErrorf("issue %s is not cached; run query --store first", issue)
	}
	return store.LoadEvents(issue, window)
}

func filterViews(views []*event.View, window model.Window) []*event.View {
	out := views[:0]
	for _, v := range views {
		created := v.Created()
		switch {
		case created.IsZero():
		case !window.Since.IsZero() && created.Before(window.Since):
			continue
		case !window.To.IsZero() && created.After(window.To):
			continue
		}
		out = append(out, v)
	}
	return out
}

// parseWindow parses --since/--to in the local zone. An empty --to takes
// defaultTo, which may be zero for an open end.
func parseWindow(since, to string, defaultTo time.Time) (model.Window, error) {
	var w model.Window
	if since != "" {
		t, err := timestamp.ParseLocal(since)
		if err != nil {
			return w, model.UserErrorf("invalid --since %q: should be yyyy-mm-dd or yyyy-mm-ddThh:mm:ss", since)
		}
		w.Since = t
	}
	if to != "" {
		t, err := timestamp.ParseLocal(to)
		if err != nil {
			return w, model.UserErrorf("invalid --to %q: should be yyyy-mm-dd or yyyy-mm-ddThh:mm:ss", to)
		}
		w.To = t
	} else {
		w.To = defaultTo
	}
	if !w.Since.IsZero() && !w.To.IsZero() && w.Since.After(w.To) {
		return w, model.UserErrorf("--since %s is after --to %s", w.Since.Format(time.RFC3339), w.To.Format(time.RFC3339))
	}
	return w, nil
}
