package aggregate

import (
	"sort"

	"github.com/tinytelemetry/sentrycli/internal/event"
)

// Options lists the distinct keys available for grouping, per facet.
type Options struct {
	Headers []string `json:"headers" yaml:"headers"`
	Context []string `json:"context" yaml:"context"`
	Params  []string `json:"params" yaml:"params"`
	Vars    []string `json:"vars" yaml:"vars"`
	Tags    []string `json:"tags" yaml:"tags"`
}

// CollectOptions gathers sorted distinct keys of every facet over views.
func CollectOptions(views []*event.View) Options {
	headers := make(map[string]struct{})
	context := make(map[string]struct{})
	params := make(map[string]struct{})
	vars := make(map[string]struct{})
	tags := make(map[string]struct{})

	for _, v := range views {
		addKeys(headers, v.Headers())
		addKeys(context, v.Context())
		addKeys(params, v.Params())
		addKeys(tags, v.Tags())
		for _, name := range v.VarNames() {
			vars[name] = struct{}{}
		}
	}

	return Options{
		Headers: sortedKeys(headers),
		Context: sortedKeys(context),
		Params:  sortedKeys(params),
		Vars:    sortedKeys(vars),
		Tags:    sortedKeys(tags),
	}
}

func addKeys(set map[string]struct{}, m map[string]any) {
	for k := range m {
		set[k] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
