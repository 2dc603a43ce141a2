// Package filtering decides which discovered test cases a run should execute.
package filtering

import (
	"fmt"
	"strings"

	"github.com/testharbor/testharbor/types"
)

// TraitPair is one (name, value) tag used for inclusion or exclusion.
type TraitPair struct {
	Name  string
	Value string
}

// Filters holds the user-specified case filters for a run. A single Filters
// value is shared read-only across all concurrent suite runs; Matches has no
// side effects and is safe for concurrent use. Empty sets match everything.
type Filters struct {
	IncludeTraits []TraitPair
	ExcludeTraits []TraitPair
	MethodNames   map[string]struct{}
	ClassNames    map[string]struct{}
}

// New builds Filters from repeated CLI values. Trait arguments use the
// "name=value" form; method and class arguments are fully-qualified names.
func New(includeTraits, excludeTraits, methods, classes []string) (Filters, error) {
	f := Filters{}

	var err error
	if f.IncludeTraits, err = parseTraits(includeTraits); err != nil {
		return Filters{}, fmt.Errorf("invalid trait filter: %w", err)
	}
	if f.ExcludeTraits, err = parseTraits(excludeTraits); err != nil {
		return Filters{}, fmt.Errorf("invalid trait exclusion: %w", err)
	}

	f.MethodNames = toSet(methods)
	f.ClassNames = toSet(classes)
	return f, nil
}

// Empty reports whether no filter criteria are set at all.
func (f Filters) Empty() bool {
	return len(f.IncludeTraits) == 0 && len(f.ExcludeTraits) == 0 &&
		len(f.MethodNames) == 0 && len(f.ClassNames) == 0
}

// Matches decides whether a test case passes the configured filters.
//
// Method and class name sets use OR semantics within the set but AND across
// criteria: a non-empty set the case is absent from rejects it. Include
// traits use OR semantics (any matching pair admits); exclude traits use AND
// semantics (any matching pair rejects). A case with no traits can never
// satisfy a non-empty include set.
func (f Filters) Matches(tc types.TestCaseHandle) bool {
	if len(f.MethodNames) > 0 {
		if _, ok := f.MethodNames[tc.MethodName]; !ok {
			return false
		}
	}
	if len(f.ClassNames) > 0 {
		if _, ok := f.ClassNames[tc.ClassName]; !ok {
			return false
		}
	}
	if len(f.IncludeTraits) > 0 {
		included := false
		for _, p := range f.IncludeTraits {
			if tc.HasTrait(p.Name, p.Value) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, p := range f.ExcludeTraits {
		if tc.HasTrait(p.Name, p.Value) {
			return false
		}
	}
	return true
}

// Apply returns the subset of cases matching the filters, preserving the
// engine's discovery order.
func (f Filters) Apply(cases []types.TestCaseHandle) []types.TestCaseHandle {
	if f.Empty() {
		return cases
	}
	matched := make([]types.TestCaseHandle, 0, len(cases))
	for _, tc := range cases {
		if f.Matches(tc) {
			matched = append(matched, tc)
		}
	}
	return matched
}

func parseTraits(raw []string) ([]TraitPair, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	pairs := make([]TraitPair, 0, len(raw))
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", r)
		}
		pairs = append(pairs, TraitPair{Name: name, Value: value})
	}
	return pairs, nil
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
