package model

import (
	"fmt"
	"strings"
	"time"
)

// AttributeKind tags which facet of an event a GroupKey resolves against.
type AttributeKind int

const (
	KindHeader AttributeKind = iota
	KindContext
	KindParam
	KindVar
	KindTag
	KindBreadcrumbOrder
	// KindBreadcrumb resolves a category:attribute pair against the event's
	// breadcrumbs. The attribute name may be dotted (data.url).
	KindBreadcrumb
)

func (k AttributeKind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindContext:
		return "context"
	case KindParam:
		return "param"
	case KindVar:
		return "var"
	case KindTag:
		return "tag"
	case KindBreadcrumbOrder:
		return "breadcrumb-order"
	case KindBreadcrumb:
		return "breadcrumb"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// BreadcrumbOrderColumn is the column title of the synthetic ordering key.
const BreadcrumbOrderColumn = "breadcrumbs in order"

// GroupKey is one requested grouping column.
type GroupKey struct {
	Kind     AttributeKind
	Name     string
	Category string // only for KindBreadcrumb
}

// Column returns the report column title for the key.
func (k GroupKey) Column() string {
	switch k.Kind {
	case KindBreadcrumbOrder:
		return BreadcrumbOrderColumn
	case KindBreadcrumb:
		return k.Category + ":" + k.Name
	}
	return k.Name
}

// ParseBreadcrumbKey parses the "<category>:<attribute>" form.
func ParseBreadcrumbKey(s string) (GroupKey, error) {
	category, attr, ok := strings.Cut(s, ":")
	if !ok || category == "" || attr == "" || strings.Contains(attr, ":") {
		return GroupKey{}, UserErrorf("invalid breadcrumb attribute %q: should be in format <category>:<attribute>", s)
	}
	return GroupKey{Kind: KindBreadcrumb, Category: category, Name: attr}, nil
}

// Granularity selects the creation-time bucket size.
type Granularity string

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
)

// ParseGranularity validates a --ctime value.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case Daily, Monthly:
		return Granularity(s), nil
	default:
		return "", UserErrorf("invalid creation time mode %q: want daily or monthly", s)
	}
}

// Window bounds event creation time. Zero values are open ends.
type Window struct {
	Since time.Time
	To    time.Time
}

// IsZero reports whether neither bound is set.
func (w Window) IsZero() bool {
	return w.Since.IsZero() && w.To.IsZero()
}

// Row is one distinct value tuple of a report. A nil entry in Values means the
// attribute was absent on the events counted here.
type Row struct {
	Values  []any   `json:"values" yaml:"values"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Report is the ordered outcome of an aggregation or bucketing pass.
// Total is always the number of input events, even when Rows is truncated.
type Report struct {
	Columns []string `json:"columns" yaml:"columns"`
	Rows    []Row    `json:"rows" yaml:"rows"`
	Total   int      `json:"total" yaml:"total"`
}

// Headers returns the attribute columns followed by count and %.
func (r *Report) Headers() []string {
	h := make([]string, 0, len(r.Columns)+2)
	h = append(h, r.Columns...)
	return append(h, "count", "%")
}

// IssueSummary describes one issue held in the local event cache.
type IssueSummary struct {
	Issue     string    `json:"issue"`
	Events    int64     `json:"events"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}
