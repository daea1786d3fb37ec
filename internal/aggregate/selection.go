package aggregate

import (
	"github.com/tinytelemetry/sentrycli/internal/breadcrumbs"
	"github.com/tinytelemetry/sentrycli/internal/event"
	"github.com/tinytelemetry/sentrycli/internal/model"
)

// Selection is the user facing shape of a grouping request, shared by the
// CLI flags and the HTTP API body.
type Selection struct {
	Headers   []string `json:"headers"`
	Context   []string `json:"context"`
	Params    []string `json:"params"`
	Variables []string `json:"variables"`
	Tags      []string `json:"tags"`

	// Attributes are breadcrumb attributes as <category>:<attribute>.
	Attributes []string `json:"attributes"`

	// InOrder holds whitespace separated breadcrumb patterns.
	InOrder []string `json:"in_order"`
	CTime   string   `json:"ctime"`
	Top     int      `json:"top"`
}

// Plan is a validated Selection. Exactly one of Request and Granularity is
// in effect: Granularity is set for creation-time bucketing.
type Plan struct {
	Request     Request
	Granularity model.Granularity
}

// IsTimeBucket reports whether the plan buckets by creation time.
func (p Plan) IsTimeBucket() bool { return p.Granularity != "" }

// BuildPlan turns a Selection into a Plan. The returned error is always a
// model.UserError.
func BuildPlan(s Selection) (Plan, error) {
	var keys []model.GroupKey
	add := func(kind model.AttributeKind, names []string) {
		for _, n := range names {
			keys = append(keys, model.GroupKey{Kind: kind, Name: n})
		}
	}
	add(model.KindHeader, s.Headers)
	add(model.KindContext, s.Context)
	add(model.KindParam, s.Params)
	add(model.KindVar, s.Variables)
	add(model.KindTag, s.Tags)
	for _, raw := range s.Attributes {
		k, err := model.ParseBreadcrumbKey(raw)
		if err != nil {
			return Plan{}, err
		}
		keys = append(keys, k)
	}

	var patterns []breadcrumbs.Pattern
	for _, raw := range s.InOrder {
		p, err := breadcrumbs.ParsePattern(raw)
		if err != nil {
			return Plan{}, model.AsUserError(err)
		}
		patterns = append(patterns, p)
	}
	if len(patterns) > 0 {
		keys = append(keys, model.GroupKey{Kind: model.KindBreadcrumbOrder, Name: model.BreadcrumbOrderColumn})
	}

	if s.CTime != "" {
		if len(keys) > 0 {
			return Plan{}, model.AsUserError(model.ErrExclusiveDimensions)
		}
		g, err := model.ParseGranularity(s.CTime)
		if err != nil {
			return Plan{}, err
		}
		return Plan{Granularity: g}, nil
	}

	if len(keys) == 0 {
		return Plan{}, model.AsUserError(model.ErrNoGroupKey)
	}
	if s.Top < 0 {
		return Plan{}, model.UserErrorf("top must be positive, got %d", s.Top)
	}

	req := Request{Keys: keys, Patterns: patterns, Limit: s.Top}
	if err := req.Validate(); err != nil {
		return Plan{}, err
	}
	return Plan{Request: req}, nil
}

// Run executes the plan over views.
func (p Plan) Run(views []*event.View) (*model.Report, error) {
	if p.IsTimeBucket() {
		return Bucket(views, p.Granularity)
	}
	return Aggregate(views, p.Request)
}
