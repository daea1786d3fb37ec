// Package breadcrumbs matches ordered category patterns against an event's
// breadcrumb trail and extracts per-category attributes.
package breadcrumbs

import (
	"fmt"
	"regexp"
	"strings"
)

// Wildcard is the pattern element that skips any number of breadcrumbs.
const Wildcard = "*"

type element struct {
	expr     string
	re       *regexp.Regexp
	wildcard bool
}

// Pattern is an ordered sequence of category expressions. Each concrete
// element must fully match a single category.
type Pattern struct {
	elements []element
}

// Compile builds a Pattern from its elements.
func Compile(exprs []string) (Pattern, error) {
	if len(exprs) == 0 {
		return Pattern{}, fmt.Errorf("breadcrumbs: empty pattern")
	}
	p := Pattern{elements: make([]element, 0, len(exprs))}
	for _, expr := range exprs {
		if expr == Wildcard {
			p.elements = append(p.elements, element{expr: expr, wildcard: true})
			continue
		}
		re, err := regexp.Compile(`^(?:` + expr + `)$`)
		if err != nil {
			return Pattern{}, fmt.Errorf("breadcrumbs: invalid category expression %q: %w", expr, err)
		}
		p.elements = append(p.elements, element{expr: expr, re: re})
	}
	return p, nil
}

// ParsePattern splits a whitespace separated pattern ("login * checkout").
func ParsePattern(s string) (Pattern, error) {
	return Compile(strings.Fields(s))
}

// MustCompile is Compile that panics on error.
func MustCompile(exprs ...string) Pattern {
	p, err := Compile(exprs)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string {
	parts := make([]string, len(p.elements))
	for i, e := range p.elements {
		parts[i] = e.expr
	}
	return strings.Join(parts, " ")
}

// Match reports whether categories satisfy the pattern. Two cursors walk the
// pattern and the categories. After a wildcard the next concrete element may
// match anywhere ahead of the category cursor (first match wins); otherwise it
// must match the category at the cursor. Categories left over after the last
// element are ignored.
func (p Pattern) Match(categories []string) bool {
	pos := 0
	free := false
	for _, e := range p.elements {
		if e.wildcard {
			free = true
			continue
		}
		if free {
			found := false
			for pos < len(categories) {
				hit := e.re.MatchString(categories[pos])
				pos++
				if hit {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			free = false
			continue
		}
		if pos >= len(categories) || !e.re.MatchString(categories[pos]) {
			return false
		}
		pos++
	}
	return true
}

// MatchAll reports whether every pattern matches. An empty pattern set
// matches nothing.
func MatchAll(patterns []Pattern, categories []string) bool {
	if len(patterns) == 0 {
		return false
	}
	for _, p := range patterns {
		if !p.Match(categories) {
			return false
		}
	}
	return true
}
