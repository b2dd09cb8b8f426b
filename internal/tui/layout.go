package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	humanize "github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/nixlim/evdash/internal/events"
)

const (
	defaultWidth = 100

	headerHeight   = 1
	controlsHeight = 1
	helpHeight     = 1
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	focusedControlStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("63"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	streamerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	linkStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("39"))

	alertCriticalStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("196"))

	placeholderStyle = lipgloss.NewStyle().
				Italic(true).
				Foreground(lipgloss.Color("245"))
)

// truncate shortens s to at most w terminal cells.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.Truncate(s, w, "…")
}

// cell truncates and pads s to exactly w cells.
func cell(s string, w int) string {
	return runewidth.FillRight(truncate(s, w), w)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func (m Model) viewWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}

// resultsHeight is the number of lines left for records. With no window
// size yet everything is drawn.
func (m Model) resultsHeight() int {
	if m.height <= 0 {
		return 1 << 20
	}
	h := m.height - headerHeight - controlsHeight - 1
	if m.cfg.Display.ShowHelp {
		h -= helpHeight
		if m.help.ShowAll {
			h -= 3
		}
	}
	if m.data != nil && m.data.Dataset().Failed() {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) renderHeaderLine(viewLabel, right string) string {
	w := m.viewWidth()
	title := " evdash"
	indicators := m.headerIndicators()
	padding := w - lipgloss.Width(title) - lipgloss.Width(viewLabel) - lipgloss.Width(indicators) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return headerStyle.Width(w).Render(title + viewLabel + indicators + strings.Repeat(" ", padding) + right)
}

func (m Model) headerIndicators() string {
	var parts []string
	if !m.isPersistent {
		parts = append(parts, "[No persistence]")
	}
	if m.data != nil {
		ds := m.data.Dataset()
		if ds.Failed() {
			parts = append(parts, fmt.Sprintf("[!] Load failed (%s)", ds.Failure.Stage))
		} else if !ds.LoadedAt.IsZero() {
			parts = append(parts, "loaded "+humanize.Time(ds.LoadedAt))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

func (m Model) renderLoading() string {
	var sb strings.Builder
	sb.WriteString(m.renderHeaderLine(" [Loading]", "q:Quit "))
	sb.WriteString("\n\n  ")
	sb.WriteString(m.spinner.View())
	sb.WriteString(" Loading events from ")
	sb.WriteString(events.PlainText(m.source))
	sb.WriteString("…\n")
	return sb.String()
}

func (m Model) renderDashboard() string {
	var sb strings.Builder

	counts := fmt.Sprintf("%d of %d events ", m.data.VisibleCount(), m.data.Total())
	sb.WriteString(m.renderHeaderLine(" [Dashboard]", counts))
	sb.WriteByte('\n')

	sb.WriteString(m.renderControls())
	sb.WriteByte('\n')

	if ds := m.data.Dataset(); ds.Failed() {
		msg := fmt.Sprintf("  Could not load events from %s: %v", ds.Source, ds.Failure.Err)
		sb.WriteString(alertCriticalStyle.Render(truncate(events.PlainText(msg), m.viewWidth())))
		sb.WriteByte('\n')
	}

	sb.WriteString(m.renderResults())

	if m.cfg.Display.ShowHelp {
		sb.WriteByte('\n')
		sb.WriteString(m.help.View(m.keys))
	}
	return sb.String()
}

func (m Model) renderControls() string {
	f := m.data.Filter()

	label := func(focus Focus, text string) string {
		if m.focus == focus {
			return focusedControlStyle.Render(text)
		}
		return text
	}
	selector := func(focus Focus, name, value string) string {
		return label(focus, name+":") + " " + "‹ " + truncate(events.PlainText(value), 20) + " ›"
	}

	parts := []string{
		label(FocusSearch, "Search:") + " " + m.search.View(),
		selector(FocusCategory, "Category", f.Category),
		selector(FocusStreamer, "Streamer", f.Streamer),
		label(FocusResults, "Results"),
	}
	line := " " + strings.Join(parts, "   ")
	if !f.IsDefault() {
		line += "   " + dimStyle.Render("ctrl+r: reset")
	}
	return line
}
