package events

import "strings"

// Canonical field names. Source payloads are mapped onto these on ingestion.
const (
	FieldDate              = "date"
	FieldEventCategory     = "eventCategory"
	FieldPrimaryStreamer   = "primaryStreamer"
	FieldLocationCombined  = "locationCombined"
	FieldSummary           = "summary"
	FieldActivity          = "activity"
	FieldInvolvedStreamers = "involvedStreamers"
	FieldVODURL            = "vodUrl"
)

// Event is one normalized record. Records are never mutated after load.
type Event struct {
	Date              string            `json:"date"`
	EventCategory     string            `json:"eventCategory"`
	PrimaryStreamer   string            `json:"primaryStreamer"`
	LocationCombined  string            `json:"locationCombined,omitempty"`
	Summary           string            `json:"summary,omitempty"`
	Activity          string            `json:"activity,omitempty"`
	InvolvedStreamers []string          `json:"involvedStreamers,omitempty"`
	VODURL            string            `json:"vodUrl,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"` // source keys with no canonical home
}

// Field returns the value of a canonical field, or "" for unknown names.
func (e Event) Field(name string) string {
	switch name {
	case FieldDate:
		return e.Date
	case FieldEventCategory:
		return e.EventCategory
	case FieldPrimaryStreamer:
		return e.PrimaryStreamer
	case FieldLocationCombined:
		return e.LocationCombined
	case FieldSummary:
		return e.Summary
	case FieldActivity:
		return e.Activity
	case FieldInvolvedStreamers:
		return strings.Join(e.InvolvedStreamers, ", ")
	case FieldVODURL:
		return e.VODURL
	}
	return ""
}

// SearchableText concatenates every field of the record, summary, category
// and streamer first, separated by newlines so that a search term can not
// match across a field boundary.
func (e Event) SearchableText() string {
	parts := []string{
		e.Summary,
		e.EventCategory,
		e.PrimaryStreamer,
		e.Date,
		e.LocationCombined,
		e.Activity,
		strings.Join(e.InvolvedStreamers, ", "),
		e.VODURL,
	}
	for _, k := range sortedKeys(e.Extra) {
		parts = append(parts, e.Extra[k])
	}
	return strings.Join(parts, "\n")
}
