package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nixlim/evdash/internal/config"
	"github.com/nixlim/evdash/internal/dataset"
	"github.com/nixlim/evdash/internal/storage"
)

type ViewState int

const (
	ViewLoading ViewState = iota
	ViewDashboard
	ViewHistory
)

// Focus is the control receiving input on the dashboard.
type Focus int

const (
	FocusSearch Focus = iota
	FocusCategory
	FocusStreamer
	FocusResults
	focusCount
)

type Loader interface {
	Load(ctx context.Context, location string) dataset.Dataset
}

type HistoryProvider interface {
	Recent(limit int) ([]storage.LoadEntry, error)
}

type loadedMsg struct {
	ds dataset.Dataset
}

type historyMsg struct {
	entries []storage.LoadEntry
	err     error
}

const historyLimit = 200

type Model struct {
	view     ViewState
	width    int
	height   int
	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	search   textinput.Model
	quitting bool

	cfg    config.Config
	ctx    context.Context
	source string

	loader   Loader
	history  HistoryProvider
	observer dataset.FilterObserver

	// data is nil until the first load completes.
	data    *dataset.View
	loading bool

	focus  Focus
	cursor int
	layout string

	historyEntries   []storage.LoadEntry
	historyErr       error
	historyScrollPos int

	isPersistent bool

	onShutdown func()
}

func NewModel(cfg config.Config, opts ...ModelOption) Model {
	ti := textinput.New()
	ti.Placeholder = "search events"
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.Width = 30

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = panelTitleStyle

	h := help.New()
	h.ShowAll = false

	m := Model{
		view:    ViewLoading,
		keys:    DefaultKeyMap(),
		help:    h,
		spinner: sp,
		search:  ti,
		cfg:     cfg,
		ctx:     context.Background(),
		source:  cfg.Source.Location,
		layout:  cfg.Display.Layout,
		focus:   FocusResults,
	}

	for _, opt := range opts {
		opt(&m)
	}

	if m.data != nil && m.observer != nil {
		m.data.SetObserver(m.observer)
	}
	m.loading = m.view == ViewLoading && m.loader != nil

	return m
}

type ModelOption func(*Model)

func WithLoader(l Loader) ModelOption {
	return func(m *Model) { m.loader = l }
}

func WithHistoryProvider(h HistoryProvider) ModelOption {
	return func(m *Model) { m.history = h }
}

func WithFilterObserver(o dataset.FilterObserver) ModelOption {
	return func(m *Model) { m.observer = o }
}

func WithContext(ctx context.Context) ModelOption {
	return func(m *Model) { m.ctx = ctx }
}

func WithSource(location string) ModelOption {
	return func(m *Model) { m.source = location }
}

// WithDataset starts on the dashboard with ds already loaded.
func WithDataset(ds dataset.Dataset) ModelOption {
	return func(m *Model) {
		m.data = dataset.NewView(ds)
		m.view = ViewDashboard
	}
}

func WithOnShutdown(fn func()) ModelOption {
	return func(m *Model) { m.onShutdown = fn }
}

func WithPersistenceFlag(isPersistent bool) ModelOption {
	return func(m *Model) { m.isPersistent = isPersistent }
}

func (m Model) Init() tea.Cmd {
	if !m.loading {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

// loadCmd runs the single in-flight load. The loader never fails; failures
// arrive as an empty dataset carrying a LoadFailure.
func (m Model) loadCmd() tea.Cmd {
	loader, ctx, location := m.loader, m.ctx, m.source
	return func() tea.Msg {
		return loadedMsg{ds: loader.Load(ctx, location)}
	}
}

func (m Model) historyCmd() tea.Cmd {
	h := m.history
	return func() tea.Msg {
		entries, err := h.Recent(historyLimit)
		return historyMsg{entries: entries, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		return m.handleLoaded(msg.ds), nil

	case historyMsg:
		m.historyEntries = msg.entries
		m.historyErr = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleLoaded(ds dataset.Dataset) Model {
	m.loading = false
	if m.data == nil {
		m.data = dataset.NewView(ds)
		if m.observer != nil {
			m.data.SetObserver(m.observer)
		}
	} else {
		m.data.Replace(ds)
	}
	m.search.SetValue("")
	m.cursor = 0
	if m.view == ViewLoading {
		m.view = ViewDashboard
	}
	return m
}

// startLoad begins a reload unless one is already in flight.
func (m Model) startLoad() (tea.Model, tea.Cmd) {
	if m.loading || m.loader == nil {
		return m, nil
	}
	m.loading = true
	m.view = ViewLoading
	return m, tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.onShutdown != nil {
		m.onShutdown()
	}
	return m, tea.Quit
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit()
	}

	// Input that references the dataset is meaningless until it exists.
	if m.view == ViewLoading || m.loading {
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		return m, nil
	}

	switch m.view {
	case ViewDashboard:
		return m.handleDashboardKey(msg)
	case ViewHistory:
		return m.handleHistoryKey(msg)
	}
	return m, nil
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextFocus):
		return m.setFocus((m.focus + 1) % focusCount)
	case key.Matches(msg, m.keys.PrevFocus):
		return m.setFocus((m.focus + focusCount - 1) % focusCount)
	case key.Matches(msg, m.keys.Reset):
		m.resetFilter()
		return m, nil
	}

	if m.focus == FocusSearch {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Reload):
		return m.startLoad()
	case key.Matches(msg, m.keys.Layout):
		if m.layout == config.LayoutTable {
			m.layout = config.LayoutCards
		} else {
			m.layout = config.LayoutTable
		}
		return m, nil
	case key.Matches(msg, m.keys.History):
		m.view = ViewHistory
		m.historyScrollPos = 0
		if m.history != nil {
			return m, m.historyCmd()
		}
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.focus {
	case FocusCategory, FocusStreamer:
		return m.handleSelectorKey(msg)
	case FocusResults:
		return m.handleResultsKey(msg)
	}
	return m, nil
}

func (m Model) setFocus(f Focus) (tea.Model, tea.Cmd) {
	m.focus = f
	if f == FocusSearch {
		return m, m.search.Focus()
	}
	m.search.Blur()
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Escape) {
		return m.setFocus(FocusResults)
	}
	if msg.Type == tea.KeyEnter {
		return m.setFocus(FocusResults)
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := m.search.Value(); after != before {
		m.data.SetSearch(after)
		m.cursor = 0
	}
	return m, cmd
}

func (m Model) handleSelectorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := 0
	switch {
	case key.Matches(msg, m.keys.Right):
		step = 1
	case key.Matches(msg, m.keys.Left):
		step = -1
	default:
		return m, nil
	}

	facets := m.data.Facets()
	f := m.data.Filter()
	if m.focus == FocusCategory {
		m.data.SetCategory(cycleOption(facets.Categories, f.Category, step))
	} else {
		m.data.SetStreamer(cycleOption(facets.Streamers, f.Streamer, step))
	}
	m.cursor = 0
	return m, nil
}

// cycleOption moves step positions through "all" followed by values,
// wrapping at both ends.
func cycleOption(values []string, current string, step int) string {
	options := append([]string{dataset.All}, values...)
	idx := 0
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	idx = (idx + step + len(options)) % len(options)
	return options[idx]
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.data.VisibleCount()
	page := m.resultsHeight() / 2
	if page < 1 {
		page = 1
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor--
	case key.Matches(msg, m.keys.Down):
		m.cursor++
	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= page
	case key.Matches(msg, m.keys.PageDown):
		m.cursor += page
	case key.Matches(msg, m.keys.Toggle):
		rows := m.data.Rows()
		if m.cursor >= 0 && m.cursor < len(rows) {
			m.data.Toggle(rows[m.cursor].Index)
		}
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		return m.setFocus(FocusSearch)
	default:
		return m, nil
	}

	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m, nil
}

func (m *Model) resetFilter() {
	m.data.Reset()
	m.search.SetValue("")
	m.cursor = 0
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.History), key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.NextFocus):
		m.view = ViewDashboard
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.historyScrollPos > 0 {
			m.historyScrollPos--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.historyScrollPos < len(m.historyEntries)-1 {
			m.historyScrollPos++
		}
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		if m.history != nil {
			return m, m.historyCmd()
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var output string
	switch m.view {
	case ViewLoading:
		output = m.renderLoading()
	case ViewDashboard:
		output = m.renderDashboard()
	case ViewHistory:
		output = m.renderHistory()
	}

	if m.height > 0 {
		lines := strings.Split(output, "\n")
		if len(lines) > m.height {
			lines = lines[:m.height]
			output = strings.Join(lines, "\n")
		}
	}

	return output
}
