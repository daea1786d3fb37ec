package breadcrumbs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tinytelemetry/sentrycli/internal/event"
	"github.com/tinytelemetry/sentrycli/internal/model"
)

// Lookup resolves a category:attribute key against one event. The value comes
// from the last breadcrumb of that category. For a dotted name key.subkey the
// key's value is searched for subkey, inside its "extra" mapping when it has
// one. Absent at either level, or no breadcrumb of the category, yields nil.
//
// A breadcrumb of the category without the top-level key is an error
// wrapping model.ErrMissingBreadcrumbAttribute.
func Lookup(v *event.View, category, name string) (any, error) {
	key, subkey, nested := strings.Cut(name, ".")

	var value any
	for _, b := range v.Breadcrumbs() {
		if b.Category != category {
			continue
		}
		raw, ok := b.Fields[key]
		if !ok {
			return nil, fmt.Errorf("%w %q on category %q", model.ErrMissingBreadcrumbAttribute, key, category)
		}
		if nested {
			raw = lookupNested(raw, subkey)
		}
		value = raw
	}
	return value, nil
}

func lookupNested(value any, subkey string) any {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	if extra, ok := m["extra"]; ok {
		em, ok := extra.(map[string]any)
		if !ok {
			return nil
		}
		m = em
	}
	return m[subkey]
}

// CategoryAttributes maps each category seen across views to the sorted set
// of attributes usable with Lookup.
func CategoryAttributes(views []*event.View) map[string][]string {
	sets := make(map[string]map[string]struct{})
	for _, v := range views {
		for _, b := range v.Breadcrumbs() {
			set, ok := sets[b.Category]
			if !ok {
				set = make(map[string]struct{})
				sets[b.Category] = set
			}
			for k := range b.Fields {
				set[k] = struct{}{}
			}
			if data, ok := b.Fields["data"].(map[string]any); ok {
				for k := range data {
					set["data."+k] = struct{}{}
				}
				if extra, ok := data["extra"].(map[string]any); ok {
					for k := range extra {
						set["data."+k] = struct{}{}
					}
				}
			}
			delete(set, "category")
			delete(set, "data")
			delete(set, "data.extra")
		}
	}

	out := make(map[string][]string, len(sets))
	for category, set := range sets {
		attrs := make([]string, 0, len(set))
		for a := range set {
			attrs = append(attrs, a)
		}
		sort.Strings(attrs)
		out[category] = attrs
	}
	return out
}
