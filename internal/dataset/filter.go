package dataset

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nixlim/evdash/internal/events"
)

// All is the selector value that disables a facet predicate.
const All = "all"

// FilterState is the current search text and facet selections.
type FilterState struct {
	SearchText string
	Category   string
	Streamer   string
}

// DefaultFilter is the identity filter ("", "all", "all").
func DefaultFilter() FilterState {
	return FilterState{Category: All, Streamer: All}
}

// IsDefault reports whether f lets every record through.
func (f FilterState) IsDefault() bool {
	return f == DefaultFilter()
}

// Matches reports whether e passes all three predicates. Missing record
// fields compare as empty strings.
func (f FilterState) Matches(e events.Event) bool {
	return f.matches(e, fold(f.SearchText))
}

func (f FilterState) matches(e events.Event, needle string) bool {
	if f.Category != All && e.EventCategory != f.Category {
		return false
	}
	if f.Streamer != All && e.PrimaryStreamer != f.Streamer {
		return false
	}
	if needle == "" {
		return true
	}
	return strings.Contains(fold(e.SearchableText()), needle)
}

// Apply returns, in original order, every record that matches f. The result
// is always a fresh slice; records is not modified.
func Apply(records []events.Event, f FilterState) []events.Event {
	idx := ApplyIndexed(records, f)
	out := make([]events.Event, len(idx))
	for i, pos := range idx {
		out[i] = records[pos]
	}
	return out
}

// ApplyIndexed is Apply returning source positions instead of records.
func ApplyIndexed(records []events.Event, f FilterState) []int {
	needle := fold(f.SearchText)
	out := make([]int, 0, len(records))
	for i, e := range records {
		if f.matches(e, needle) {
			out = append(out, i)
		}
	}
	return out
}

// fold lower-cases s. A Caser holds state, so one is built per call.
func fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Lower(language.Und).String(s)
}

// Facets holds the selector options derived from a dataset.
type Facets struct {
	Categories []string
	Streamers  []string
}

// ExtractFacets computes the category and streamer options.
func ExtractFacets(records []events.Event) Facets {
	return Facets{
		Categories: FacetValues(records, events.FieldEventCategory),
		Streamers:  FacetValues(records, events.FieldPrimaryStreamer),
	}
}

// FacetValues returns the distinct non-empty values of field across records,
// case-sensitive and sorted by ordinal string comparison.
func FacetValues(records []events.Event, field string) []string {
	seen := make(map[string]struct{})
	for _, e := range records {
		v := e.Field(field)
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
