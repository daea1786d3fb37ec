package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tinytelemetry/sentrycli/internal/aggregate"
	"github.com/tinytelemetry/sentrycli/internal/model"
)

// RenderOptions writes the groupable keys of each facet.
func RenderOptions(w io.Writer, opts aggregate.Options, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, opts)
	case FormatYAML:
		return writeYAML(w, opts)
	}

	facets := []struct {
		name string
		keys []string
	}{
		{"headers", opts.Headers},
		{"context", opts.Context},
		{"params", opts.Params},
		{"vars", opts.Vars},
		{"tags", opts.Tags},
	}
	if f == FormatCSV {
		return writeRecords(w, []string{"facet", "key"}, func(emit func(...string)) {
			for _, facet := range facets {
				for _, k := range facet.keys {
					emit(facet.name, k)
				}
			}
		})
	}

	var b strings.Builder
	for _, facet := range facets {
		fmt.Fprintf(&b, "%s:\n", headerStyle.UnsetPadding().Render(facet.name))
		if len(facet.keys) == 0 {
			b.WriteString("  (none)\n")
			continue
		}
		for _, k := range facet.keys {
			fmt.Fprintf(&b, "  %s\n", k)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderCategories writes each breadcrumb category with its attributes.
func RenderCategories(w io.Writer, categories map[string][]string, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, categories)
	case FormatYAML:
		return writeYAML(w, categories)
	case FormatCSV:
		return writeRecords(w, []string{"category", "attribute"}, func(emit func(...string)) {
			for _, c := range sortedKeys(categories) {
				for _, a := range categories[c] {
					emit(c, a)
				}
			}
		})
	}

	rows := make([][]string, 0, len(categories))
	for _, c := range sortedKeys(categories) {
		rows = append(rows, []string{c, strings.Join(categories[c], ", ")})
	}
	t := newTable([]string{"category", "attributes"}, rows, nil)
	_, err := io.WriteString(w, t.String()+"\n")
	return err
}

// RenderIssues writes the summary of cached issues.
func RenderIssues(w io.Writer, issues []model.IssueSummary, f Format) error {
	switch f {
	case FormatJSON:
		if issues == nil {
			issues = []model.IssueSummary{}
		}
		return writeJSON(w, issues)
	case FormatYAML:
		return writeYAML(w, issuesYAML(issues))
	}

	headers := []string{"issue", "events", "first seen", "last seen"}
	records := make([][]string, 0, len(issues))
	for _, is := range issues {
		records = append(records, []string{
			is.Issue,
			strconv.FormatInt(is.Events, 10),
			formatTime(is.FirstSeen),
			formatTime(is.LastSeen),
		})
	}

	if f == FormatCSV {
		return writeRecords(w, headers, func(emit func(...string)) {
			for _, rec := range records {
				emit(rec...)
			}
		})
	}
	if len(issues) == 0 {
		_, err := io.WriteString(w, "No cached issues\n")
		return err
	}
	t := newTable(headers, records, func(col int) bool { return col == 1 })
	_, err := io.WriteString(w, t.String()+"\n")
	return err
}

type issueYAML struct {
	Issue     string `yaml:"issue"`
	Events    int64  `yaml:"events"`
	FirstSeen string `yaml:"first_seen,omitempty"`
	LastSeen  string `yaml:"last_seen,omitempty"`
}

func issuesYAML(issues []model.IssueSummary) []issueYAML {
	out := make([]issueYAML, 0, len(issues))
	for _, is := range issues {
		out = append(out, issueYAML{
			Issue:     is.Issue,
			Events:    is.Events,
			FirstSeen: formatTime(is.FirstSeen),
			LastSeen:  formatTime(is.LastSeen),
		})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
