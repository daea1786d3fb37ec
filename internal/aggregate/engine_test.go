package aggregate

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/tinytelemetry/sentrycli/internal/breadcrumbs"
	"github.com/tinytelemetry/sentrycli/internal/event"
	"github.com/tinytelemetry/sentrycli/internal/model"
)

func newView(t *testing.T, data string) *event.View {
	t.Helper()
	raw, err := event.Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode(%s): %v", data, err)
	}
	return event.NewView(raw)
}

func taggedEvent(tags map[string]string) string {
	list := ""
	for k, v := range tags {
		if list != "" {
			list += ","
		}
		list += fmt.Sprintf(`{"key": %q, "value": %q}`, k, v)
	}
	return `{"tags": [` + list + `]}`
}

func crumbEvent(categories ...string) string {
	list := ""
	for i, c := range categories {
		if i > 0 {
			list += ","
		}
		list += fmt.Sprintf(`{"category": %q}`, c)
	}
	return `{"breadcrumbs": [` + list + `]}`
}

func sumCounts(r *model.Report) int {
	total := 0
	for _, row := range r.Rows {
		total += row.Count
	}
	return total
}

func TestAggregate_CountsAndOrder(t *testing.T) {
	views := []*event.View{
		newView(t, taggedEvent(map[string]string{"env": "prod", "os": "linux"})),
		newView(t, taggedEvent(map[string]string{"env": "prod", "os": "linux"})),
		newView(t, taggedEvent(map[string]string{"env": "prod", "os": "mac"})),
		newView(t, taggedEvent(map[string]string{"env": "dev", "os": "linux"})),
	}
	req := Request{Keys: []model.GroupKey{
		{Kind: model.KindTag, Name: "env"},
		{Kind: model.KindTag, Name: "os"},
	}}

	report, err := Aggregate(views, req)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if !reflect.DeepEqual(report.Columns, []string{"env", "os"}) {
		t.Errorf("Columns = %v", report.Columns)
	}
	if report.Total != 4 {
		t.Errorf("Total = %d, want 4", report.Total)
	}
	want := [][]any{{"prod", "linux"}, {"dev", "linux"}, {"prod", "mac"}}
	wantCounts := []int{2, 1, 1}
	if len(report.Rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(report.Rows), len(want))
	}
	for i, row := range report.Rows {
		if !reflect.DeepEqual(row.Values, want[i]) || row.Count != wantCounts[i] {
			t.Errorf("row %d = %v x%d, want %v x%d", i, row.Values, row.Count, want[i], wantCounts[i])
		}
	}
	if report.Rows[0].Percent != 50 || report.Rows[1].Percent != 25 {
		t.Errorf("percentages = %v, %v; want 50, 25", report.Rows[0].Percent, report.Rows[1].Percent)
	}
}

func TestAggregate_LimitKeepsTotal(t *testing.T) {
	var views []*event.View
	for i := 0; i < 10; i++ {
		views = append(views, newView(t, taggedEvent(map[string]string{"release": fmt.Sprintf("r%d", i%4)})))
	}
	req := Request{Keys: []model.GroupKey{{Kind: model.KindTag, Name: "release"}}, Limit: 2}

	report, err := Aggregate(views, req)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(report.Rows))
	}
	if report.Total != 10 {
		t.Errorf("Total = %d, want 10 (untruncated)", report.Total)
	}
	// r0 and r1 have 3 events each, r2 and r3 have 2.
	if report.Rows[0].Values[0] != "r0" || report.Rows[1].Values[0] != "r1" {
		t.Errorf("top rows = %v, %v; want r0, r1", report.Rows[0].Values, report.Rows[1].Values)
	}
	if report.Rows[0].Percent != 30 {
		t.Errorf("percent = %v, want 30 (base is all events)", report.Rows[0].Percent)
	}

	full, err := Aggregate(views, Request{Keys: req.Keys})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got := sumCounts(full); got != len(views) {
		t.Errorf("sum of counts = %d, want %d", got, len(views))
	}
}

func TestAggregate_NullsGroupTogether(t *testing.T) {
	views := []*event.View{
		newView(t, `{"context": {"browser": "firefox"}}`),
		newView(t, `{"context": {}}`),
		newView(t, `{}`),
		newView(t, `{"context": {"browser": ""}}`),
	}
	req := Request{Keys: []model.GroupKey{{Kind: model.KindContext, Name: "browser"}}}

	report, err := Aggregate(views, req)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(report.Rows) != 3 {
		t.Fatalf("rows = %v, want null, empty string and firefox", report.Rows)
	}
	if report.Rows[0].Values[0] != nil || report.Rows[0].Count != 2 {
		t.Errorf("first row = %v x%d, want nil x2", report.Rows[0].Values, report.Rows[0].Count)
	}
	// Tie between "" and "firefox" is broken by value order.
	if report.Rows[1].Values[0] != "" || report.Rows[2].Values[0] != "firefox" {
		t.Errorf("tie order = %v, %v", report.Rows[1].Values, report.Rows[2].Values)
	}
}

func TestAggregate_AllKinds(t *testing.T) {
	v := newView(t, `{
		"entries": [
			{"type": "request", "data": {"headers": [["Referer", "/home"]]}},
			{"type": "message", "data": {"formatted": "oops"}},
			{"type": "exception", "data": {"values": [{"stacktrace": {"frames": [{"vars": {"n": 7}}]}}]}}
		],
		"context": {"lang": "en"},
		"user": {"id": "42"},
		"tags": [{"key": "env", "value": "prod"}]
	}`)
	req := Request{Keys: []model.GroupKey{
		{Kind: model.KindHeader, Name: "Referer"},
		{Kind: model.KindContext, Name: "id"},
		{Kind: model.KindParam, Name: "formatted"},
		{Kind: model.KindVar, Name: "n"},
		{Kind: model.KindTag, Name: "env"},
	}}

	report, err := Aggregate([]*event.View{v}, req)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	got := report.Rows[0].Values
	if got[0] != "/home" || got[1] != "42" || got[2] != "oops" || fmt.Sprint(got[3]) != "7" || got[4] != "prod" {
		t.Errorf("values = %v", got)
	}
}

func TestAggregate_BreadcrumbOrderAND(t *testing.T) {
	views := []*event.View{
		newView(t, crumbEvent("login", "click", "checkout")),
		newView(t, crumbEvent("login", "checkout", "pay")),
		newView(t, crumbEvent("checkout", "login")),
	}
	req := Request{
		Keys: []model.GroupKey{{Kind: model.KindBreadcrumbOrder, Name: model.BreadcrumbOrderColumn}},
		Patterns: []breadcrumbs.Pattern{
			breadcrumbs.MustCompile("login", "*", "checkout"),
			breadcrumbs.MustCompile("*", "pay"),
		},
	}

	report, err := Aggregate(views, req)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if report.Columns[0] != model.BreadcrumbOrderColumn {
		t.Errorf("column = %q", report.Columns[0])
	}
	counts := map[any]int{}
	for _, row := range report.Rows {
		counts[row.Values[0]] = row.Count
	}
	if counts[true] != 1 || counts[false] != 2 {
		t.Errorf("counts = %v, want true:1 false:2", counts)
	}
}

func TestAggregate_BreadcrumbAttribute(t *testing.T) {
	views := []*event.View{
		newView(t, `{"breadcrumbs": [{"category": "http", "data": {"url": "/a"}}]}`),
		newView(t, `{"breadcrumbs": [{"category": "http", "data": {"url": "/a"}}]}`),
		newView(t, `{"breadcrumbs": [{"category": "ui", "data": {}}]}`),
	}
	req := Request{Keys: []model.GroupKey{{Kind: model.KindBreadcrumb, Category: "http", Name: "data.url"}}}

	report, err := Aggregate(views, req)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if report.Columns[0] != "http:data.url" {
		t.Errorf("column = %q, want http:data.url", report.Columns[0])
	}
	if report.Rows[0].Values[0] != "/a" || report.Rows[0].Count != 2 {
		t.Errorf("first row = %v x%d", report.Rows[0].Values, report.Rows[0].Count)
	}
	if report.Rows[1].Values[0] != nil {
		t.Errorf("second row = %v, want nil", report.Rows[1].Values)
	}
}

func TestAggregate_MissingBreadcrumbAttributeIsUserError(t *testing.T) {
	views := []*event.View{newView(t, `{"breadcrumbs": [{"category": "http"}]}`)}
	req := Request{Keys: []model.GroupKey{{Kind: model.KindBreadcrumb, Category: "http", Name: "data.url"}}}

	_, err := Aggregate(views, req)
	if !model.IsUserError(err) || !errors.Is(err, model.ErrMissingBreadcrumbAttribute) {
		t.Errorf("err = %v, want user error wrapping ErrMissingBreadcrumbAttribute", err)
	}
}

func TestAggregate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"no keys", Request{}, model.ErrNoGroupKey},
		{"order without patterns", Request{Keys: []model.GroupKey{{Kind: model.KindBreadcrumbOrder}}}, model.ErrNoPatterns},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(nil, tt.req)
			if !errors.Is(err, tt.want) || !model.IsUserError(err) {
				t.Errorf("err = %v, want user error %v", err, tt.want)
			}
		})
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	var views []*event.View
	for i := 0; i < 30; i++ {
		views = append(views, newView(t, taggedEvent(map[string]string{
			"a": fmt.Sprintf("a%d", i%3),
			"b": fmt.Sprintf("b%d", i%5),
		})))
	}
	req := Request{Keys: []model.GroupKey{{Kind: model.KindTag, Name: "a"}, {Kind: model.KindTag, Name: "b"}}}

	first, err := Aggregate(views, req)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Aggregate(views, req)
		if err != nil {
			t.Fatalf("Aggregate: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs from first run", i)
		}
	}
	if got := sumCounts(first); got != 30 {
		t.Errorf("sum of counts = %d, want 30", got)
	}
}

func TestCompareValues_Ranks(t *testing.T) {
	ordered := []any{nil, false, true, jsonNumber("-1"), jsonNumber("2"), jsonNumber("10"), "", "a", map[string]any{"k": "v"}}
	for i := 0; i < len(ordered)-1; i++ {
		if c := compareValues(ordered[i], ordered[i+1]); c >= 0 {
			t.Errorf("compareValues(%v, %v) = %d, want < 0", ordered[i], ordered[i+1], c)
		}
		if c := compareValues(ordered[i+1], ordered[i]); c <= 0 {
			t.Errorf("compareValues(%v, %v) = %d, want > 0", ordered[i+1], ordered[i], c)
		}
	}
}
