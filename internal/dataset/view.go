package dataset

import (
	"slices"

	"github.com/nixlim/evdash/internal/events"
)

// Row is a visible record together with its position in the full dataset.
// The position is the record's only identity and keys its detail toggle.
type Row struct {
	Index int
	Event events.Event
}

// View owns a dataset, its facet options, the current filter state and the
// per-record detail toggles. Every filter change recomputes the visible set
// from the full dataset. A View is not safe for concurrent use; the TUI
// drives it from its single update loop and the web handler builds one per
// request.
type View struct {
	data     Dataset
	facets   Facets
	filter   FilterState
	visible  []int
	expanded map[int]bool
	observer FilterObserver
}

// FilterObserver is told the outcome of every filter application.
type FilterObserver interface {
	ObserveFilter(visible, total int)
}

// SetObserver installs o; nil removes it.
func (v *View) SetObserver(o FilterObserver) {
	v.observer = o
}

// NewView takes ownership of ds and applies the identity filter.
func NewView(ds Dataset) *View {
	v := &View{}
	v.Replace(ds)
	return v
}

// NewViewWithFacets is NewView for a dataset whose facets were already
// extracted, so short-lived views over one load share a single extraction.
func NewViewWithFacets(ds Dataset, facets Facets) *View {
	v := &View{}
	v.replace(ds, facets)
	return v
}

// Replace swaps in a freshly loaded dataset. Facets are recomputed, the
// filter returns to its default and all detail panels collapse, since
// positions from the old dataset mean nothing in the new one.
func (v *View) Replace(ds Dataset) {
	v.replace(ds, ExtractFacets(ds.Records))
}

func (v *View) replace(ds Dataset, facets Facets) {
	v.data = ds
	v.facets = facets
	v.filter = DefaultFilter()
	v.expanded = make(map[int]bool)
	v.recompute()
}

// Dataset returns the owned dataset.
func (v *View) Dataset() Dataset {
	return v.data
}

// Facets returns the options computed at load time.
func (v *View) Facets() Facets {
	return v.facets
}

// Filter returns the current filter state.
func (v *View) Filter() FilterState {
	return v.filter
}

// SetFilter replaces the whole filter state.
func (v *View) SetFilter(f FilterState) {
	if f.Category == "" {
		f.Category = All
	}
	if f.Streamer == "" {
		f.Streamer = All
	}
	v.filter = f
	v.recompute()
}

// SetSearch updates the search text.
func (v *View) SetSearch(text string) {
	v.filter.SearchText = text
	v.recompute()
}

// SetCategory selects a category; "" or All clears the selection.
func (v *View) SetCategory(c string) {
	if c == "" {
		c = All
	}
	v.filter.Category = c
	v.recompute()
}

// SetStreamer selects a streamer; "" or All clears the selection.
func (v *View) SetStreamer(s string) {
	if s == "" {
		s = All
	}
	v.filter.Streamer = s
	v.recompute()
}

// Reset restores the identity filter and re-renders the full dataset.
func (v *View) Reset() {
	v.filter = DefaultFilter()
	v.recompute()
}

func (v *View) recompute() {
	v.visible = ApplyIndexed(v.data.Records, v.filter)
	if v.observer != nil {
		v.observer.ObserveFilter(len(v.visible), len(v.data.Records))
	}
}

// Rows returns the records that currently pass the filter, in order.
func (v *View) Rows() []Row {
	rows := make([]Row, len(v.visible))
	for i, pos := range v.visible {
		rows[i] = Row{Index: pos, Event: v.data.Records[pos]}
	}
	return rows
}

// Visible returns the filtered records without positions.
func (v *View) Visible() []events.Event {
	out := make([]events.Event, len(v.visible))
	for i, pos := range v.visible {
		out[i] = v.data.Records[pos]
	}
	return out
}

// VisibleCount returns the number of records passing the filter.
func (v *View) VisibleCount() int {
	return len(v.visible)
}

// Total returns the size of the full dataset.
func (v *View) Total() int {
	return len(v.data.Records)
}

// Toggle flips the detail panel of the record at position idx and returns
// the new state. Out of range positions are ignored.
func (v *View) Toggle(idx int) bool {
	if idx < 0 || idx >= len(v.data.Records) {
		return false
	}
	v.expanded[idx] = !v.expanded[idx]
	if !v.expanded[idx] {
		delete(v.expanded, idx)
	}
	return v.expanded[idx]
}

// Expanded reports whether the detail panel at position idx is open.
func (v *View) Expanded(idx int) bool {
	return v.expanded[idx]
}

// ExpandedPositions returns the open panels in ascending order.
func (v *View) ExpandedPositions() []int {
	out := make([]int, 0, len(v.expanded))
	for idx := range v.expanded {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}
