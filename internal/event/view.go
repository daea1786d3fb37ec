// Package event wraps raw error-tracking events in read-only typed views.
package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tinytelemetry/sentrycli/internal/timestamp"
)

// Raw is one decoded event object. Numbers are kept as json.Number so values
// render the way the upstream sent them.
type Raw map[string]any

// Breadcrumb is one breadcrumb record. Category is copied out of Fields for
// convenience; Fields holds every top-level key including category.
type Breadcrumb struct {
	Category string
	Fields   map[string]any
}

// Frame is one stack frame of the first exception value.
type Frame struct {
	Vars map[string]any
}

// View is the normalized, immutable projection of one raw event. All facets
// are computed once at construction.
type View struct {
	raw         Raw
	created     time.Time
	headers     map[string]any
	params      map[string]any
	context     map[string]any
	frames      []Frame
	tags        map[string]any
	breadcrumbs []Breadcrumb
}

// Decode parses one JSON event object.
func Decode(data []byte) (Raw, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw Raw
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("event: decode: %w", err)
	}
	return raw, nil
}

// NewView builds the view of raw. Missing or malformed facets become empty
// values; nothing about a single event is fatal.
func NewView(raw Raw) *View {
	v := &View{raw: raw}
	v.created = parseCreated(raw)
	v.headers = emptyIfNil(extractHeaders(firstEntry(raw, "request")))
	v.params = emptyIfNil(asMap(firstEntry(raw, "message")))
	v.context = mergeContext(raw)
	v.frames = extractFrames(firstEntry(raw, "exception"))
	v.tags = extractTags(raw)
	v.breadcrumbs = extractBreadcrumbs(raw)
	return v
}

// NewViews decodes and wraps every event.
func NewViews(events []json.RawMessage) ([]*View, error) {
	views := make([]*View, 0, len(events))
	for i, data := range events {
		raw, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		views = append(views, NewView(raw))
	}
	return views, nil
}

// Raw returns the wrapped event. Callers must not modify it.
func (v *View) Raw() Raw { return v.raw }

// ID is the event identifier, taken from eventID and then id. Empty when
// neither is a string.
func (v *View) ID() string {
	for _, key := range []string{"eventID", "id"} {
		if s, ok := v.raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Created is the event's creation time, zero when dateCreated is missing or
// unparseable.
func (v *View) Created() time.Time { return v.created }

// Headers are the HTTP headers of the first request entry.
func (v *View) Headers() map[string]any { return v.headers }

// Params is the data of the first message entry.
func (v *View) Params() map[string]any { return v.params }

// Context is the event context with the user object applied on top.
func (v *View) Context() map[string]any { return v.context }

// Frames are the stack frames of the first value of the first exception
// entry. Further exception values are not consulted.
func (v *View) Frames() []Frame { return v.frames }

// Tags maps tag keys to values. For duplicate keys the last one wins.
func (v *View) Tags() map[string]any { return v.tags }

// Breadcrumbs are returned in recorded order.
func (v *View) Breadcrumbs() []Breadcrumb { return v.breadcrumbs }

// Categories returns the breadcrumb category sequence.
func (v *View) Categories() []string {
	out := make([]string, len(v.breadcrumbs))
	for i, b := range v.breadcrumbs {
		out[i] = b.Category
	}
	return out
}

// StackVar returns the first non-null value of name scanning frames in order.
func (v *View) StackVar(name string) (any, bool) {
	for _, f := range v.frames {
		if val, ok := f.Vars[name]; ok && val != nil {
			return val, true
		}
	}
	return nil, false
}

// VarNames returns the union of variable names over all frames.
func (v *View) VarNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, f := range v.frames {
		for name := range f.Vars {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

func parseCreated(raw Raw) time.Time {
	s, ok := raw["dateCreated"].(string)
	if !ok {
		return time.Time{}
	}
	t, err := timestamp.Parse(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func firstEntry(raw Raw, kind string) any {
	entries, _ := raw["entries"].([]any)
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := entry["type"].(string); t == kind {
			return entry["data"]
		}
	}
	return nil
}

// extractHeaders accepts both the [[name, value], ...] list form and a plain
// object.
func extractHeaders(data any) map[string]any {
	m := asMap(data)
	if m == nil {
		return nil
	}
	switch h := m["headers"].(type) {
	case map[string]any:
		out := make(map[string]any, len(h))
		for k, val := range h {
			out[k] = val
		}
		return out
	case []any:
		out := make(map[string]any, len(h))
		for _, pair := range h {
			kv, ok := pair.([]any)
			if !ok || len(kv) != 2 {
				continue
			}
			name, ok := kv[0].(string)
			if !ok {
				continue
			}
			out[name] = kv[1]
		}
		return out
	}
	return nil
}

func mergeContext(raw Raw) map[string]any {
	out := make(map[string]any)
	for k, val := range asMap(raw["context"]) {
		out[k] = val
	}
	for k, val := range asMap(raw["user"]) {
		out[k] = val
	}
	return out
}

func extractFrames(data any) []Frame {
	values, _ := asMap(data)["values"].([]any)
	if len(values) == 0 {
		return nil
	}
	stacktrace := asMap(asMap(values[0])["stacktrace"])
	rawFrames, _ := stacktrace["frames"].([]any)
	frames := make([]Frame, 0, len(rawFrames))
	for _, rf := range rawFrames {
		frames = append(frames, Frame{Vars: asMap(asMap(rf)["vars"])})
	}
	return frames
}

func extractTags(raw Raw) map[string]any {
	out := make(map[string]any)
	tags, _ := raw["tags"].([]any)
	for _, t := range tags {
		tag := asMap(t)
		key, ok := tag["key"].(string)
		if !ok {
			continue
		}
		out[key] = tag["value"]
	}
	return out
}

// extractBreadcrumbs reads the breadcrumbs entry, falling back to a top-level
// breadcrumbs key (either a list or {"values": [...]}).
func extractBreadcrumbs(raw Raw) []Breadcrumb {
	src := firstEntry(raw, "breadcrumbs")
	if src == nil {
		src = raw["breadcrumbs"]
	}
	var list []any
	switch b := src.(type) {
	case []any:
		list = b
	case map[string]any:
		list, _ = b["values"].([]any)
	}
	out := make([]Breadcrumb, 0, len(list))
	for _, item := range list {
		fields := asMap(item)
		if fields == nil {
			continue
		}
		category, _ := fields["category"].(string)
		out = append(out, Breadcrumb{Category: category, Fields: fields})
	}
	return out
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func emptyIfNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
