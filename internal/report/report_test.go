package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/sentrycli/internal/aggregate"
	"github.com/tinytelemetry/sentrycli/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Columns: []string{"tag:browser", "tag:os"},
		Rows: []model.Row{
			{Values: []any{"Chrome", json.Number("10")}, Count: 2, Percent: 66.666},
			{Values: []any{nil, "Linux"}, Count: 1, Percent: 33.333},
		},
		Total: 3,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"csv", FormatCSV, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if !model.IsUserError(err) {
				t.Errorf("ParseFormat(%q) err = %v, want user error", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "None"},
		{"x", "x"},
		{json.Number("1.5"), "1.5"},
		{true, "true"},
		{float64(3), "3"},
		{map[string]any{"a": json.Number("1")}, `{"a":1}`},
		{[]any{"a", nil}, `["a",null]`},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTextIncludesCellsAndTotal(t *testing.T) {
	out := Text(sampleReport())
	for _, want := range []string{"tag:browser", "tag:os", "count", "%", "Chrome", "None", "Linux", "66.7", "33.3", "Total: 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Chrome") > strings.Index(out, "Linux") {
		t.Error("rows should keep report order")
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(), FormatJSON); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var got struct {
		Columns []string `json:"columns"`
		Rows    []struct {
			Values []any `json:"values"`
			Count  int   `json:"count"`
		} `json:"rows"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if got.Total != 3 || len(got.Rows) != 2 {
		t.Fatalf("got %+v", got)
	}
	if got.Rows[0].Values[1] != float64(10) {
		t.Errorf("number value = %#v, want 10", got.Rows[0].Values[1])
	}
	if got.Rows[1].Values[0] != nil {
		t.Errorf("null value = %#v, want nil", got.Rows[1].Values[0])
	}
}

func TestRenderYAMLUnquotesNumbers(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(), FormatYAML); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var got struct {
		Rows []struct {
			Values []any `yaml:"values"`
		} `yaml:"rows"`
		Total int `yaml:"total"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Total != 3 {
		t.Errorf("total = %d, want 3", got.Total)
	}
	if got.Rows[0].Values[1] != 10 {
		t.Errorf("number value = %#v, want int 10", got.Rows[0].Values[1])
	}
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(), FormatCSV); err != nil {
		t.Fatalf("Render: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := [][]string{
		{"tag:browser", "tag:os", "count", "%"},
		{"Chrome", "10", "2", "66.7"},
		{"", "Linux", "1", "33.3"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if strings.Join(records[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("record %d = %v, want %v", i, records[i], want[i])
		}
	}
}

func TestChart(t *testing.T) {
	rep := &model.Report{
		Columns: []string{"day"},
		Rows: []model.Row{
			{Values: []any{nil}, Count: 1},
			{Values: []any{"2024-01-01"}, Count: 3},
			{Values: []any{"2024-01-02"}, Count: 2},
		},
		Total: 6,
	}
	if out := Chart(rep, 40, 8); strings.TrimSpace(out) == "" {
		t.Error("expected non-empty chart")
	}
	if out := Chart(&model.Report{}, 40, 8); out != "" {
		t.Errorf("empty report chart = %q, want empty", out)
	}
}

func TestRenderOptions(t *testing.T) {
	opts := aggregate.Options{Headers: []string{"Accept"}, Tags: []string{"os", "release"}}

	var text bytes.Buffer
	if err := RenderOptions(&text, opts, FormatText); err != nil {
		t.Fatalf("RenderOptions: %v", err)
	}
	for _, want := range []string{"headers", "Accept", "context", "(none)", "release"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("options output missing %q:\n%s", want, text.String())
		}
	}

	var out bytes.Buffer
	if err := RenderOptions(&out, opts, FormatCSV); err != nil {
		t.Fatalf("RenderOptions csv: %v", err)
	}
	records, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 4 || records[3][0] != "tags" || records[3][1] != "release" {
		t.Errorf("records = %v", records)
	}
}

func TestRenderCategories(t *testing.T) {
	cats := map[string][]string{
		"http":  {"data.method", "data.url"},
		"query": {"message"},
	}
	var buf bytes.Buffer
	if err := RenderCategories(&buf, cats, FormatText); err != nil {
		t.Fatalf("RenderCategories: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "data.method, data.url") {
		t.Errorf("missing attribute list:\n%s", out)
	}
	if strings.Index(out, "http") > strings.Index(out, "query") {
		t.Error("categories should be sorted")
	}
}

func TestRenderIssues(t *testing.T) {
	issues := []model.IssueSummary{{
		Issue:     "123",
		Events:    4,
		FirstSeen: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		LastSeen:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}}

	var text bytes.Buffer
	if err := RenderIssues(&text, issues, FormatText); err != nil {
		t.Fatalf("RenderIssues: %v", err)
	}
	for _, want := range []string{"123", "4", "2024-01-01T00:00:00Z"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("issues output missing %q:\n%s", want, text.String())
		}
	}

	var empty bytes.Buffer
	if err := RenderIssues(&empty, nil, FormatJSON); err != nil {
		t.Fatalf("RenderIssues json: %v", err)
	}
	if strings.TrimSpace(empty.String()) != "[]" {
		t.Errorf("empty json = %q, want []", empty.String())
	}
}
