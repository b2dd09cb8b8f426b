// Package web serves the dashboard as a single HTML page. Filter state lives
// in the query string, so every request renders filter(dataset, state) from
// scratch and a URL always reproduces what it showed.
package web

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/nixlim/evdash/internal/config"
	"github.com/nixlim/evdash/internal/dataset"
	"github.com/nixlim/evdash/internal/events"
)

type Loader interface {
	Load(ctx context.Context, location string) dataset.Dataset
}

type Server struct {
	loader   Loader
	source   string
	layout   string
	metrics  http.Handler
	observer dataset.FilterObserver
	logger   *slog.Logger
	page     *template.Template

	mu     sync.RWMutex
	data   dataset.Dataset
	facets dataset.Facets
	loaded bool

	// loadMu admits a single load at a time.
	loadMu sync.Mutex

	httpServer *http.Server
}

type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithFilterObserver(o dataset.FilterObserver) Option {
	return func(s *Server) { s.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithLayout sets the layout used when the query string names none.
func WithLayout(layout string) Option {
	return func(s *Server) { s.layout = layout }
}

func New(loader Loader, source string, opts ...Option) *Server {
	s := &Server{
		loader: loader,
		source: source,
		layout: config.LayoutCards,
		logger: slog.Default(),
		page:   template.Must(template.New("page").Funcs(funcMap).Parse(tmplBase + tmplPage)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Reload fetches the dataset and swaps it in whole. A call made while
// another load is in flight returns false without loading.
func (s *Server) Reload(ctx context.Context) bool {
	if !s.loadMu.TryLock() {
		return false
	}
	defer s.loadMu.Unlock()

	ds := s.loader.Load(ctx, s.source)
	facets := dataset.ExtractFacets(ds.Records)

	s.mu.Lock()
	s.data = ds
	s.facets = facets
	s.loaded = true
	s.mu.Unlock()
	return true
}

// Dataset returns the current dataset and whether a load has completed.
func (s *Server) Dataset() (dataset.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.loaded
}

func (s *Server) snapshot() (dataset.Dataset, dataset.Facets, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.facets, s.loaded
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("serving dashboard", "addr", l.Addr().String())
	err := s.httpServer.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type rowData struct {
	Index   int
	Event   events.Event
	VOD     string
	Open    bool
	Details []events.DetailLine
}

// option is one entry of a facet selector.
type option struct {
	Value    string
	Selected bool
}

type pageData struct {
	Loaded     bool
	Source     string
	LoadedAt   time.Time
	Failure    *dataset.LoadFailure
	Filter     dataset.FilterState
	Categories []option
	Streamers  []option
	Layout     string
	Rows       []rowData
	Visible    int
	Total      int
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ds, facets, loaded := s.snapshot()
	q := r.URL.Query()

	data := pageData{
		Loaded: loaded,
		Source: s.source,
		Layout: s.layout,
	}
	if l := q.Get("layout"); l == config.LayoutCards || l == config.LayoutTable {
		data.Layout = l
	}

	if loaded {
		v := dataset.NewViewWithFacets(ds, facets)
		if s.observer != nil {
			v.SetObserver(s.observer)
		}
		v.SetFilter(filterFromQuery(q))
		for _, raw := range q["open"] {
			if idx, err := strconv.Atoi(raw); err == nil && !v.Expanded(idx) {
				v.Toggle(idx)
			}
		}

		data.LoadedAt = ds.LoadedAt
		data.Failure = ds.Failure
		data.Filter = v.Filter()
		data.Categories = options(facets.Categories, data.Filter.Category)
		data.Streamers = options(facets.Streamers, data.Filter.Streamer)
		data.Visible = v.VisibleCount()
		data.Total = v.Total()
		for _, row := range v.Rows() {
			rd := rowData{
				Index:   row.Index,
				Event:   row.Event,
				Open:    v.Expanded(row.Index),
				Details: events.Details(row.Event),
			}
			rd.VOD, _ = row.Event.VODLink()
			data.Rows = append(data.Rows, rd)
		}
	}

	s.render(w, data)
}

// options lists the facet values for a selector. A selected value that is
// not among them (a hand-edited URL, or one from an older load) is kept as
// the first option so the form still shows the filter actually applied.
func options(values []string, selected string) []option {
	out := make([]option, 0, len(values)+1)
	if selected != dataset.All && !slices.Contains(values, selected) {
		out = append(out, option{Value: selected, Selected: true})
	}
	for _, v := range values {
		out = append(out, option{Value: v, Selected: v == selected})
	}
	return out
}

func filterFromQuery(q map[string][]string) dataset.FilterState {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	f := dataset.FilterState{
		SearchText: get("q"),
		Category:   get("category"),
		Streamer:   get("streamer"),
	}
	if f.Category == "" {
		f.Category = dataset.All
	}
	if f.Streamer == "" {
		f.Streamer = dataset.All
	}
	return f
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.ExecuteTemplate(w, "base", data); err != nil {
		s.logger.Error("template error", "error", err)
	}
}
