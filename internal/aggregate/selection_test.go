package aggregate

import (
	"errors"
	"testing"

	"github.com/tinytelemetry/sentrycli/internal/event"
	"github.com/tinytelemetry/sentrycli/internal/model"
)

func TestBuildPlan_KeyOrder(t *testing.T) {
	plan, err := BuildPlan(Selection{
		Tags:      []string{"env"},
		Headers:   []string{"Host"},
		Variables: []string{"user"},
		InOrder:   []string{"login * checkout"},
		Top:       3,
	})
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if plan.IsTimeBucket() {
		t.Fatal("plan should not be a time bucket")
	}
	kinds := []model.AttributeKind{model.KindHeader, model.KindVar, model.KindTag, model.KindBreadcrumbOrder}
	if len(plan.Request.Keys) != len(kinds) {
		t.Fatalf("keys = %v", plan.Request.Keys)
	}
	for i, k := range plan.Request.Keys {
		if k.Kind != kinds[i] {
			t.Errorf("key %d kind = %s, want %s", i, k.Kind, kinds[i])
		}
	}
	if plan.Request.Limit != 3 || len(plan.Request.Patterns) != 1 {
		t.Errorf("limit = %d, patterns = %d", plan.Request.Limit, len(plan.Request.Patterns))
	}
}

func TestBuildPlan_BreadcrumbAttributes(t *testing.T) {
	plan, err := BuildPlan(Selection{Attributes: []string{"http:data.url", "query:message"}})
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	keys := plan.Request.Keys
	if len(keys) != 2 {
		t.Fatalf("keys = %v", keys)
	}
	if keys[0].Kind != model.KindBreadcrumb || keys[0].Category != "http" || keys[0].Name != "data.url" {
		t.Errorf("keys[0] = %+v", keys[0])
	}
	if keys[1].Column() != "query:message" {
		t.Errorf("keys[1] column = %q", keys[1].Column())
	}

	if _, err := BuildPlan(Selection{Attributes: []string{"nocolon"}}); !model.IsUserError(err) {
		t.Errorf("bad attribute err = %v, want user error", err)
	}
}

func TestBuildPlan_Errors(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want error
	}{
		{"empty", Selection{}, model.ErrNoGroupKey},
		{"ctime with tags", Selection{CTime: "daily", Tags: []string{"env"}}, model.ErrExclusiveDimensions},
		{"ctime with order", Selection{CTime: "monthly", InOrder: []string{"a"}}, model.ErrExclusiveDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPlan(tt.sel)
			if !errors.Is(err, tt.want) || !model.IsUserError(err) {
				t.Errorf("err = %v, want user error %v", err, tt.want)
			}
		})
	}

	if _, err := BuildPlan(Selection{CTime: "weekly"}); !model.IsUserError(err) {
		t.Errorf("bad ctime err = %v, want user error", err)
	}
	if _, err := BuildPlan(Selection{InOrder: []string{"("}}); !model.IsUserError(err) {
		t.Errorf("bad pattern err = %v, want user error", err)
	}
	if _, err := BuildPlan(Selection{Tags: []string{"a"}, Top: -1}); !model.IsUserError(err) {
		t.Errorf("negative top err = %v, want user error", err)
	}
}

func TestPlan_RunTimeBucket(t *testing.T) {
	plan, err := BuildPlan(Selection{CTime: "monthly"})
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	views := []*event.View{newView(t, `{"dateCreated": "2024-05-03T00:00:00Z"}`)}
	report, err := plan.Run(views)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Columns[0] != "month" || report.Rows[0].Values[0] != "2024-05" {
		t.Errorf("report = %+v", report)
	}
}

func TestCollectOptions(t *testing.T) {
	views := []*event.View{
		newView(t, `{"tags": [{"key": "b", "value": 1}, {"key": "a", "value": 2}], "context": {"x": 1}}`),
		newView(t, `{"tags": [{"key": "a", "value": 3}], "user": {"id": 1},
			"entries": [{"type": "exception", "data": {"values": [{"stacktrace": {"frames": [{"vars": {"v2": 1}}, {"vars": {"v1": 1}}]}}]}}]}`),
	}

	opts := CollectOptions(views)
	if len(opts.Tags) != 2 || opts.Tags[0] != "a" || opts.Tags[1] != "b" {
		t.Errorf("Tags = %v, want [a b]", opts.Tags)
	}
	if len(opts.Context) != 2 || opts.Context[0] != "id" {
		t.Errorf("Context = %v, want [id x]", opts.Context)
	}
	if len(opts.Vars) != 2 || opts.Vars[0] != "v1" {
		t.Errorf("Vars = %v, want [v1 v2]", opts.Vars)
	}
	if len(opts.Headers) != 0 || len(opts.Params) != 0 {
		t.Errorf("Headers = %v, Params = %v, want empty", opts.Headers, opts.Params)
	}
}
