// Package events defines the normalized event record, the mapping from the
// inconsistent source field names onto it, and the detail dump shown when a
// record is expanded.
package events

import (
	"strconv"
	"strings"
)

// DetailLine is one label/value pair of an expanded record.
type DetailLine struct {
	Label   string
	Value   string
	Link    string // set when Value should be presented as a link
	Derived bool
	VOD     bool // the record's own VOD field
}

// Details returns the full record dump followed by the derived fields:
//   - every canonical field, empty ones included
//   - every extra source field, sorted by key
//   - Involved count, Activities, VOD host and Streamer links (derived)
func Details(e Event) []DetailLine {
	lines := []DetailLine{
		{Label: "Date", Value: e.Date},
		{Label: "Category", Value: e.EventCategory},
		{Label: "Primary streamer", Value: e.PrimaryStreamer},
		{Label: "Location", Value: e.LocationCombined},
		{Label: "Activity", Value: e.Activity},
		{Label: "Involved", Value: strings.Join(e.InvolvedStreamers, ", ")},
		{Label: "Summary", Value: e.Summary},
	}

	vod := DetailLine{Label: "VOD", Value: e.VODURL, VOD: true}
	if link, ok := e.VODLink(); ok {
		vod.Link = link
	}
	lines = append(lines, vod)

	for _, k := range sortedKeys(e.Extra) {
		lines = append(lines, DetailLine{Label: k, Value: e.Extra[k]})
	}

	lines = append(lines, DetailLine{
		Label:   "Involved count",
		Value:   strconv.Itoa(len(e.InvolvedStreamers)),
		Derived: true,
	})
	if acts := Activities(e); len(acts) > 0 {
		lines = append(lines, DetailLine{Label: "Activities", Value: strings.Join(acts, " | "), Derived: true})
	}
	if u, ok := ValidLink(e.VODURL); ok {
		lines = append(lines, DetailLine{Label: "VOD host", Value: u.Hostname(), Derived: true})
	}
	for _, sl := range StreamerLinks(e) {
		dl := DetailLine{Label: "Link: " + sl.Name, Value: sl.URL, Derived: true}
		if _, ok := ValidLink(sl.URL); ok {
			dl.Link = sl.URL
		}
		lines = append(lines, dl)
	}
	return lines
}

// Activities splits the combined activity column back into its subtypes.
func Activities(e Event) []string {
	var out []string
	for _, a := range strings.Split(e.Activity, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// StreamerLink pairs an involved streamer with their socials URL.
type StreamerLink struct {
	Name string
	URL  string
}

// StreamerLinks pairs InvolvedStreamers with the positional entries of the
// involved-streamers URL column, when the source carried one. Missing or
// "??" entries are kept with the raw value so the gap stays visible.
func StreamerLinks(e Event) []StreamerLink {
	var rawURLs string
	for _, k := range sortedKeys(e.Extra) {
		if FoldKey(k) == "involvedstreamersurl" {
			rawURLs = e.Extra[k]
			break
		}
	}
	if rawURLs == "" || len(e.InvolvedStreamers) == 0 {
		return nil
	}

	urls := strings.Split(rawURLs, ",")
	out := make([]StreamerLink, 0, len(e.InvolvedStreamers))
	for i, name := range e.InvolvedStreamers {
		link := StreamerLink{Name: name}
		if i < len(urls) {
			link.URL = strings.TrimSpace(urls[i])
		}
		out = append(out, link)
	}
	return out
}
