// Package aggregate counts events by composite attribute keys and by
// creation time.
package aggregate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tinytelemetry/sentrycli/internal/breadcrumbs"
	"github.com/tinytelemetry/sentrycli/internal/event"
	"github.com/tinytelemetry/sentrycli/internal/model"
)

// Request describes one aggregation pass.
type Request struct {
	Keys []model.GroupKey

	// Patterns feed the KindBreadcrumbOrder key; an event passes only when
	// every pattern matches.
	Patterns []breadcrumbs.Pattern

	// Limit caps the number of rows; zero or negative keeps all.
	Limit int
}

// Validate checks the request before any event is touched.
func (r Request) Validate() error {
	if len(r.Keys) == 0 {
		return model.AsUserError(model.ErrNoGroupKey)
	}
	for _, k := range r.Keys {
		switch k.Kind {
		case model.KindBreadcrumbOrder:
			if len(r.Patterns) == 0 {
				return model.AsUserError(model.ErrNoPatterns)
			}
		case model.KindBreadcrumb:
			if k.Category == "" || k.Name == "" {
				return model.UserErrorf("invalid breadcrumb attribute %q", k.Category+":"+k.Name)
			}
		case model.KindHeader, model.KindContext, model.KindParam, model.KindVar, model.KindTag:
			if k.Name == "" {
				return model.UserErrorf("empty %s name", k.Kind)
			}
		default:
			return model.UserErrorf("unsupported group key kind %s", k.Kind)
		}
	}
	return nil
}

type group struct {
	values []any
	count  int
}

// Aggregate counts distinct value tuples over views. Rows are ordered by
// descending count, ties by the tuple values in key order. Total and the
// percentage base are the number of views regardless of Limit.
func Aggregate(views []*event.View, req Request) (*model.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	groups := make(map[string]*group)
	for _, v := range views {
		values, err := resolve(v, req)
		if err != nil {
			return nil, err
		}
		id, err := tupleID(values)
		if err != nil {
			return nil, err
		}
		g, ok := groups[id]
		if !ok {
			g = &group{values: values}
			groups[id] = g
		}
		g.count++
	}

	list := make([]*group, 0, len(groups))
	for _, g := range groups {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return compareTuples(list[i].values, list[j].values) < 0
	})
	if req.Limit > 0 && len(list) > req.Limit {
		list = list[:req.Limit]
	}

	report := &model.Report{
		Columns: make([]string, len(req.Keys)),
		Rows:    make([]model.Row, 0, len(list)),
		Total:   len(views),
	}
	for i, k := range req.Keys {
		report.Columns[i] = k.Column()
	}
	for _, g := range list {
		report.Rows = append(report.Rows, model.Row{
			Values:  g.values,
			Count:   g.count,
			Percent: percent(g.count, report.Total),
		})
	}
	return report, nil
}

func resolve(v *event.View, req Request) ([]any, error) {
	values := make([]any, len(req.Keys))
	for i, k := range req.Keys {
		switch k.Kind {
		case model.KindHeader:
			values[i] = v.Headers()[k.Name]
		case model.KindContext:
			values[i] = v.Context()[k.Name]
		case model.KindParam:
			values[i] = v.Params()[k.Name]
		case model.KindTag:
			values[i] = v.Tags()[k.Name]
		case model.KindVar:
			values[i], _ = v.StackVar(k.Name)
		case model.KindBreadcrumbOrder:
			values[i] = breadcrumbs.MatchAll(req.Patterns, v.Categories())
		case model.KindBreadcrumb:
			val, err := breadcrumbs.Lookup(v, k.Category, k.Name)
			if err != nil {
				return nil, model.AsUserError(err)
			}
			values[i] = val
		}
	}
	return values, nil
}

// tupleID is a canonical identity for a value tuple. encoding/json sorts map
// keys, so equal structured values produce equal ids.
func tupleID(values []any) (string, error) {
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("aggregate: encode key: %w", err)
	}
	return string(b), nil
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) * 100 / float64(total)
}
