package events

import (
	"net/url"
	"strings"
)

// ValidLink reports whether raw is an absolute http(s) URL with a host, and
// returns it in parsed form. Anything else (ftp, relative paths, "??"
// placeholders from the spreadsheet export) is not linkable.
func ValidLink(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, false
	}
	if u.Host == "" || u.Opaque != "" {
		return nil, false
	}
	return u, true
}

// VODLink returns the record's VOD URL when it is linkable.
func (e Event) VODLink() (string, bool) {
	u, ok := ValidLink(e.VODURL)
	if !ok {
		return "", false
	}
	return u.String(), true
}
