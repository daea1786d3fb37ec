package timestamp

import (
	"fmt"
	"strings"
	"time"
)

// zonedLayouts carry their own offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
}

// naiveLayouts are interpreted in the caller supplied location.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse reads an ISO-8601 timestamp. Values without an offset are placed in
// loc; a nil loc means UTC.
func Parse(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("timestamp: empty value")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp: unrecognised format %q (want yyyy-mm-dd or yyyy-mm-ddThh:mm:ss)", s)
}

// ParseLocal is Parse with naive values read in the local zone, which is how
// --since and --to are interpreted.
func ParseLocal(s string) (time.Time, error) {
	return Parse(s, time.Local)
}
