package tui

import (
	"strings"

	"github.com/nixlim/evdash/internal/config"
	"github.com/nixlim/evdash/internal/dataset"
	"github.com/nixlim/evdash/internal/events"
)

const (
	noMatchText    = "No matching events"
	vodUnavailable = "VOD unavailable"
)

// renderResults draws the visible records, replacing whatever was drawn
// before. The window scrolls only as far as needed to keep the cursor row
// on screen.
func (m Model) renderResults() string {
	rows := m.data.Rows()
	if len(rows) == 0 {
		return "\n  " + placeholderStyle.Render(noMatchText) + "\n"
	}

	w := m.viewWidth()
	var head []string
	if m.layout == config.LayoutTable {
		head = []string{dimStyle.Render(tableHeader(w))}
	}

	blocks := make([][]string, len(rows))
	for i, r := range rows {
		selected := m.focus == FocusResults && i == m.cursor
		if m.layout == config.LayoutTable {
			blocks[i] = renderTableRow(r, w, selected, m.data.Expanded(r.Index))
		} else {
			blocks[i] = renderCard(r, w, m.cfg.Display.SummaryWidth, selected, m.data.Expanded(r.Index))
		}
	}

	avail := m.resultsHeight() - len(head)
	start := windowStart(blocks, m.cursor, avail)

	lines := append([]string{}, head...)
	used := 0
	for i := start; i < len(blocks); i++ {
		if used+len(blocks[i]) > avail && used > 0 {
			break
		}
		lines = append(lines, blocks[i]...)
		used += len(blocks[i])
	}
	return strings.Join(lines, "\n")
}

// windowStart returns the first block to draw so that blocks[cursor] fits
// within avail lines, preferring to start at the top.
func windowStart(blocks [][]string, cursor, avail int) int {
	if cursor >= len(blocks) {
		cursor = len(blocks) - 1
	}
	if cursor < 0 {
		return 0
	}
	height := 0
	for i := 0; i <= cursor; i++ {
		height += len(blocks[i])
	}
	start := 0
	for height > avail && start < cursor {
		height -= len(blocks[start])
		start++
	}
	return start
}

func marker(selected, expanded bool) string {
	switch {
	case expanded:
		return "▾ "
	case selected:
		return "▸ "
	default:
		return "  "
	}
}

func renderCard(r dataset.Row, width, summaryWidth int, selected, expanded bool) []string {
	e := r.Event
	headline := marker(selected, expanded) +
		events.PlainText(orPlaceholder(e.Date)) + "  " +
		categoryStyle.Render(truncate(events.PlainText(orPlaceholder(e.EventCategory)), 24)) + "  " +
		streamerStyle.Render(truncate(events.PlainText(orPlaceholder(e.PrimaryStreamer)), 24))
	if selected {
		headline = selectedStyle.Render(headline)
	}

	sw := summaryWidth
	if sw > width-4 {
		sw = width - 4
	}
	summary := "    " + truncate(events.PlainText(e.Summary), sw)
	if strings.TrimSpace(e.Summary) == "" {
		summary = "    " + dimStyle.Render("(no summary)")
	}

	var meta []string
	if e.LocationCombined != "" {
		meta = append(meta, events.PlainText(e.LocationCombined))
	}
	if e.Activity != "" {
		meta = append(meta, events.PlainText(e.Activity))
	}
	if _, ok := e.VODLink(); ok {
		meta = append(meta, "VOD")
	} else {
		meta = append(meta, vodUnavailable)
	}
	metaLine := "    " + dimStyle.Render(truncate(strings.Join(meta, " · "), width-4))

	lines := []string{headline, summary, metaLine}
	if expanded {
		lines = append(lines, renderDetails(e, width, "      ")...)
	}
	return append(lines, "")
}

func tableHeader(width int) string {
	cols := tableColumns(width)
	return "  " + cell("Date", cols[0]) + " " + cell("Category", cols[1]) + " " +
		cell("Streamer", cols[2]) + " " + cell("Summary", cols[3])
}

// tableColumns returns the date, category, streamer and summary widths.
func tableColumns(width int) [4]int {
	date, category, streamer := 12, 16, 18
	summary := width - 2 - date - category - streamer - 3
	if summary < 10 {
		summary = 10
	}
	return [4]int{date, category, streamer, summary}
}

func renderTableRow(r dataset.Row, width int, selected, expanded bool) []string {
	e := r.Event
	cols := tableColumns(width)
	line := marker(selected, expanded) +
		cell(events.PlainText(orPlaceholder(e.Date)), cols[0]) + " " +
		cell(events.PlainText(orPlaceholder(e.EventCategory)), cols[1]) + " " +
		cell(events.PlainText(orPlaceholder(e.PrimaryStreamer)), cols[2]) + " " +
		truncate(events.PlainText(orPlaceholder(e.Summary)), cols[3])
	if selected {
		line = selectedStyle.Render(line)
	}
	lines := []string{line}
	if expanded {
		lines = append(lines, renderDetails(e, width, "    ")...)
	}
	return lines
}

// renderDetails draws the full record dump and derived fields.
func renderDetails(e events.Event, width int, indent string) []string {
	details := events.Details(e)
	labelW := 0
	for _, d := range details {
		if n := len([]rune(d.Label)); n > labelW {
			labelW = n
		}
	}
	if labelW > 24 {
		labelW = 24
	}

	valueW := width - len(indent) - labelW - 2
	if valueW < 10 {
		valueW = 10
	}

	var lines []string
	for _, d := range details {
		label := cell(events.PlainText(d.Label), labelW)
		var value string
		switch {
		case d.Link != "":
			value = linkStyle.Render(truncate(events.PlainText(d.Link), valueW))
		case d.VOD:
			value = dimStyle.Render(vodUnavailable)
		default:
			value = truncate(events.PlainText(orPlaceholder(d.Value)), valueW)
		}
		line := indent + dimStyle.Render(label) + "  " + value
		if d.Derived {
			line = indent + panelTitleStyle.Render(label) + "  " + value
		}
		lines = append(lines, line)
	}
	return lines
}
