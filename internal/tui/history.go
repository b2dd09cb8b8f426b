package tui

import (
	"fmt"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"

	"github.com/nixlim/evdash/internal/events"
)

func (m Model) renderHistory() string {
	var sb strings.Builder

	sb.WriteString(m.renderHeaderLine(" [History]", "R:Refresh  h/Esc:Dashboard  q:Quit "))
	sb.WriteByte('\n')

	if !m.isPersistent {
		sb.WriteByte('\n')
		sb.WriteString(dimStyle.Render("  journal is in memory; set storage.db_path to keep history across runs"))
		sb.WriteByte('\n')
	}

	if m.historyErr != nil {
		sb.WriteByte('\n')
		sb.WriteString(alertCriticalStyle.Render("  reading load journal: " + m.historyErr.Error()))
		sb.WriteByte('\n')
		return sb.String()
	}

	if len(m.historyEntries) == 0 {
		sb.WriteByte('\n')
		sb.WriteString(dimStyle.Render("  No loads recorded yet"))
		sb.WriteByte('\n')
		return sb.String()
	}

	w := m.viewWidth()
	sourceW := w - 16 - 8 - 9 - 10 - 10
	if sourceW < 12 {
		sourceW = 12
	}

	sb.WriteByte('\n')
	sb.WriteString(fmt.Sprintf("  %s %s %s %s %s",
		cell("When", 16), cell("Status", 8), cell("Records", 9), cell("Took", 10), "Source"))
	sb.WriteByte('\n')
	sb.WriteString(dimStyle.Render("  " + strings.Repeat("─", w-4)))
	sb.WriteByte('\n')

	visibleH := m.height - 6
	if m.height <= 0 {
		visibleH = len(m.historyEntries) * 2
	}
	if visibleH < 1 {
		visibleH = 1
	}
	startIdx := m.historyScrollPos
	if startIdx > len(m.historyEntries)-1 {
		startIdx = len(m.historyEntries) - 1
	}

	used := 0
	for i := startIdx; i < len(m.historyEntries) && used < visibleH; i++ {
		e := m.historyEntries[i]
		status := streamerStyle.Render(cell(e.Status, 8))
		if e.Failed() {
			status = alertCriticalStyle.Render(cell(e.Status, 8))
		}
		sb.WriteString(fmt.Sprintf("  %s %s %s %s %s",
			cell(humanize.Time(e.StartedAt), 16),
			status,
			cell(humanize.Comma(int64(e.Records)), 9),
			cell(e.Duration.Round(time.Millisecond).String(), 10),
			truncate(events.PlainText(e.Source), sourceW)))
		sb.WriteByte('\n')
		used++
		if e.Failed() {
			sb.WriteString(dimStyle.Render("    " + truncate(events.PlainText(e.Stage+": "+e.Error), w-6)))
			sb.WriteByte('\n')
			used++
		}
	}

	return sb.String()
}
