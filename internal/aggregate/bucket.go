package aggregate

import (
	"sort"
	"time"

	"github.com/tinytelemetry/sentrycli/internal/event"
	"github.com/tinytelemetry/sentrycli/internal/model"
)

// Bucket counts events per creation day or month. Rows are in ascending
// chronological order. Events without a creation time land in a leading
// null bucket.
func Bucket(views []*event.View, granularity model.Granularity) (*model.Report, error) {
	var layout, title string
	switch granularity {
	case model.Daily:
		layout, title = "2006-01-02", "day"
	case model.Monthly:
		layout, title = "2006-01", "month"
	default:
		return nil, model.UserErrorf("invalid creation time mode %q: want daily or monthly", granularity)
	}

	counts := make(map[time.Time]int)
	undated := 0
	for _, v := range views {
		created := v.Created()
		if created.IsZero() {
			undated++
			continue
		}
		counts[bucketStart(created, granularity)]++
	}

	keys := make([]time.Time, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	report := &model.Report{
		Columns: []string{title},
		Total:   len(views),
	}
	if undated > 0 {
		report.Rows = append(report.Rows, model.Row{
			Values:  []any{nil},
			Count:   undated,
			Percent: percent(undated, report.Total),
		})
	}
	for _, k := range keys {
		report.Rows = append(report.Rows, model.Row{
			Values:  []any{k.Format(layout)},
			Count:   counts[k],
			Percent: percent(counts[k], report.Total),
		})
	}
	return report, nil
}

// bucketStart truncates t to its day or month in t's own zone.
func bucketStart(t time.Time, granularity model.Granularity) time.Time {
	day := t.Day()
	if granularity == model.Monthly {
		day = 1
	}
	return time.Date(t.Year(), t.Month(), day, 0, 0, 0, 0, time.UTC)
}
