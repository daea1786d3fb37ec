// Package report renders aggregation results for the terminal and for
// machine consumption.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/sentrycli/internal/model"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// Formats lists every supported output format.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatCSV}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", model.UserErrorf("unknown output format %q (want text, json, yaml or csv)", s)
}

// Render writes rep to w in format f.
func Render(w io.Writer, rep *model.Report, f Format) error {
	switch f {
	case FormatText, "":
		_, err := io.WriteString(w, Text(rep))
		return err
	case FormatJSON:
		return writeJSON(w, rep)
	case FormatYAML:
		return writeYAML(w, plainReport(rep))
	case FormatCSV:
		return writeCSV(w, rep)
	default:
		return fmt.Errorf("report: unsupported format %q", f)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeCSV(w io.Writer, rep *model.Report) error {
	return writeRecords(w, rep.Headers(), func(emit func(...string)) {
		for _, row := range rep.Rows {
			rec := make([]string, 0, len(row.Values)+2)
			for _, v := range row.Values {
				if v == nil {
					rec = append(rec, "")
					continue
				}
				rec = append(rec, FormatValue(v))
			}
			emit(append(rec, strconv.Itoa(row.Count), FormatPercent(row.Percent))...)
		}
	})
}

// FormatValue renders one tuple value for display. Null is None; strings
// and numbers print bare; composite values print as compact JSON.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}

// plainReport swaps json.Number for native numbers so YAML emits them
// unquoted.
func plainReport(rep *model.Report) *model.Report {
	out := &model.Report{
		Columns: rep.Columns,
		Rows:    make([]model.Row, len(rep.Rows)),
		Total:   rep.Total,
	}
	for i, row := range rep.Rows {
		values := make([]any, len(row.Values))
		for j, v := range row.Values {
			values[j] = plain(v)
		}
		out.Rows[i] = model.Row{Values: values, Count: row.Count, Percent: row.Percent}
	}
	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[k] = plain(val)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, val := range x {
			s[i] = plain(val)
		}
		return s
	default:
		return v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
