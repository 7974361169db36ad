// Package tags decides whether a tagged unit should run.
package tags

import "strings"

// Filter holds include and exclude tag sets. Names are stored without the
// leading @.
type Filter struct {
	Include []string
	Exclude []string
}

// NewFilter normalises the given names into a Filter.
func NewFilter(include, exclude []string) Filter {
	return Filter{Include: Normalize(include), Exclude: Normalize(exclude)}
}

// ShouldRun applies the filter to a unit's effective tags. Exclusion wins
// over inclusion; an empty include set admits everything not excluded.
func (f Filter) ShouldRun(effective []string) bool {
	if len(f.Exclude) > 0 && intersects(effective, f.Exclude) {
		return false
	}
	if len(f.Include) > 0 {
		return intersects(effective, f.Include)
	}
	return true
}

// Effective returns the ordered union of tags from outermost to innermost
// level, e.g. Effective(featureTags, scenarioTags).
func Effective(levels ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, level := range levels {
		for _, name := range level {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Normalize strips a leading @ and drops empty names. Comma-separated values
// are split, so "--tag a,b" works like "--tag a --tag b".
func Normalize(names []string) []string {
	var out []string
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimPrefix(strings.TrimSpace(name), "@")
			if name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
