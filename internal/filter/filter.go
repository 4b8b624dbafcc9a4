// Package filter narrows in-memory entity lists with independent facets.
//
// A facet is either active or inactive. Inactive facets match everything;
// active facets are ANDed together. Filtering is stable and never mutates
// its input, so it can be re-run on every keystroke against the same list.
package filter

import (
	"sort"
	"strings"
)

// Record exposes the fields of an entity that facets can inspect.
type Record interface {
	// Text returns a free-text field. ok is false when the field is unknown
	// or empty.
	Text(field string) (value string, ok bool)
	// Values returns a multi-valued categorical field.
	Values(field string) []string
	// Flag returns a boolean field. Unknown fields are false.
	Flag(field string) bool
}

// Facet is one filter criterion.
type Facet interface {
	Active() bool
	Match(r Record) bool
}

// Apply returns the items matching every active facet, in input order.
// The result is a new slice; it is empty, not nil, when nothing matches.
func Apply[T Record](items []T, facets ...Facet) []T {
	active := make([]Facet, 0, len(facets))
	for _, f := range facets {
		if f != nil && f.Active() {
			active = append(active, f)
		}
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if matchAll(item, active) {
			out = append(out, item)
		}
	}
	return out
}

func matchAll(r Record, facets []Facet) bool {
	for _, f := range facets {
		if !f.Match(r) {
			return false
		}
	}
	return true
}

type searchFacet struct {
	term   string
	fields []string
}

// Search matches records where term is a case-insensitive substring of any of
// fields. A blank term is inactive.
func Search(term string, fields ...string) Facet {
	return &searchFacet{
		term:   strings.ToLower(strings.TrimSpace(term)),
		fields: fields,
	}
}

func (f *searchFacet) Active() bool { return f.term != "" }

func (f *searchFacet) Match(r Record) bool {
	for _, field := range f.fields {
		v, ok := r.Text(field)
		if ok && strings.Contains(strings.ToLower(v), f.term) {
			return true
		}
	}
	return false
}

type containsFacet struct {
	field string
	value string
}

// Contains matches records whose field set includes value exactly.
// An empty value is inactive.
func Contains(field, value string) Facet {
	return &containsFacet{field: field, value: value}
}

func (f *containsFacet) Active() bool { return f.value != "" }

func (f *containsFacet) Match(r Record) bool {
	for _, v := range r.Values(f.field) {
		if v == f.value {
			return true
		}
	}
	return false
}

type requireFacet struct {
	field string
	on    bool
}

// Require matches records whose flag is true. When on is false the facet is
// inactive and does not look at the flag at all.
func Require(field string, on bool) Facet {
	return &requireFacet{field: field, on: on}
}

func (f *requireFacet) Active() bool { return f.on }

func (f *requireFacet) Match(r Record) bool { return r.Flag(f.field) }

// Counts tallies how many items carry each value of a categorical field.
// Values repeated within one item count once.
func Counts[T Record](items []T, field string) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		seen := make(map[string]bool)
		for _, v := range item.Values(field) {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			counts[v]++
		}
	}
	return counts
}

// Options returns the sorted distinct values of a categorical field, for
// populating facet choices.
func Options[T Record](items []T, field string) []string {
	counts := Counts(items, field)
	opts := make([]string, 0, len(counts))
	for v := range counts {
		opts = append(opts, v)
	}
	sort.Strings(opts)
	return opts
}
