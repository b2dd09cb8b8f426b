package events

import (
	"regexp"
	"strings"
)

// ansiRe matches CSI and OSC escape sequences.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`)

// PlainText makes record text safe to write to a terminal: escape sequences
// are removed and every remaining control character becomes a space, so a
// record can neither restyle the terminal nor break a line-based layout.
func PlainText(s string) string {
	s = ansiRe.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0) {
			return ' '
		}
		return r
	}, s)
}
