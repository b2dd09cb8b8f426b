package events

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// canonicalKeys maps folded source keys onto canonical field names. The
// source payloads mix Event_Category, event_category and eventCategory
// (plus the bare "Location" of the workbook export); all fold to one entry.
var canonicalKeys = map[string]string{
	"date":              FieldDate,
	"eventcategory":     FieldEventCategory,
	"category":          FieldEventCategory,
	"primarystreamer":   FieldPrimaryStreamer,
	"streamer":          FieldPrimaryStreamer,
	"locationcombined":  FieldLocationCombined,
	"location":          FieldLocationCombined,
	"summary":           FieldSummary,
	"activity":          FieldActivity,
	"involvedstreamers": FieldInvolvedStreamers,
	"vodurl":            FieldVODURL,
}

// FoldKey reduces a source key to its comparison form: leading underscores
// dropped, separators removed, lower-cased. "_VOD_URL" folds to "vodurl".
func FoldKey(k string) string {
	k = strings.TrimLeft(strings.TrimSpace(k), "_")
	var sb strings.Builder
	for _, r := range k {
		switch r {
		case '_', '-', ' ':
			continue
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(sb.String())
}

// CanonicalName returns the canonical field a source key maps to.
func CanonicalName(sourceKey string) (string, bool) {
	name, ok := canonicalKeys[FoldKey(sourceKey)]
	return name, ok
}

// Normalize builds an Event from one decoded source object. It never fails:
// values of unexpected types are stringified and absent fields stay empty.
// When two source keys fold to the same canonical field, the first non-empty
// value in sorted key order wins so the result is deterministic.
func Normalize(raw map[string]any) Event {
	var e Event
	for _, key := range sortedKeys(raw) {
		val := raw[key]
		folded := FoldKey(key)

		if folded == "extra" {
			if m, ok := val.(map[string]any); ok {
				for k, v := range m {
					e.setExtra(k, stringify(v))
				}
				continue
			}
		}

		name, ok := canonicalKeys[folded]
		if !ok {
			e.setExtra(key, stringify(val))
			continue
		}

		if name == FieldInvolvedStreamers {
			if len(e.InvolvedStreamers) == 0 {
				e.InvolvedStreamers = splitStreamers(val)
			}
			continue
		}

		s := strings.TrimSpace(stringify(val))
		if s == "" {
			continue
		}
		switch name {
		case FieldDate:
			setOnce(&e.Date, s)
		case FieldEventCategory:
			setOnce(&e.EventCategory, s)
		case FieldPrimaryStreamer:
			setOnce(&e.PrimaryStreamer, s)
		case FieldLocationCombined:
			setOnce(&e.LocationCombined, s)
		case FieldSummary:
			setOnce(&e.Summary, s)
		case FieldActivity:
			setOnce(&e.Activity, s)
		case FieldVODURL:
			setOnce(&e.VODURL, s)
		}
	}
	return e
}

// DecodeJSON parses a JSON array of objects into events. Elements that are
// not objects become empty records rather than being dropped; a payload
// that is not an array is an error.
func DecodeJSON(data []byte) ([]Event, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding event array: %w", err)
	}
	if items == nil {
		return nil, fmt.Errorf("decoding event array: payload is null")
	}

	out := make([]Event, 0, len(items))
	for _, item := range items {
		dec := json.NewDecoder(strings.NewReader(string(item)))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			out = append(out, Event{})
			continue
		}
		out = append(out, Normalize(obj))
	}
	return out, nil
}

// FromRow builds an Event from a CSV row using the header row as keys.
// Short rows leave the trailing fields empty.
func FromRow(header, row []string) Event {
	raw := make(map[string]any, len(header))
	for i, h := range header {
		if i < len(row) {
			raw[h] = row[i]
		} else {
			raw[h] = ""
		}
	}
	return Normalize(raw)
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func (e *Event) setExtra(key, val string) {
	key = strings.TrimLeft(strings.TrimSpace(key), "_")
	if key == "" {
		return
	}
	if e.Extra == nil {
		e.Extra = make(map[string]string)
	}
	if _, exists := e.Extra[key]; !exists {
		e.Extra[key] = val
	}
}

// splitStreamers accepts either a list or a comma/semicolon separated string.
func splitStreamers(v any) []string {
	var parts []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			parts = append(parts, stringify(item))
		}
	case []string:
		parts = append(parts, t...)
	default:
		parts = strings.Split(strings.ReplaceAll(stringify(v), ";", ","), ",")
	}

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
