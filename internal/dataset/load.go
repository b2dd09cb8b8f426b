package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nixlim/evdash/internal/events"
	"github.com/nixlim/evdash/internal/source"
)

// Fetcher retrieves the raw payload for a source location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, source.Format, error)
}

// Loader turns a source location into a Dataset. It never returns an error:
// failures become an empty Dataset carrying a LoadFailure, and are handed to
// the Reporter along with successful loads.
type Loader struct {
	fetcher  Fetcher
	reporter Reporter
	now      func() time.Time
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithReporter sets the diagnostic channel. The default discards reports.
func WithReporter(r Reporter) LoaderOption {
	return func(l *Loader) { l.reporter = r }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

// NewLoader creates a Loader backed by f.
func NewLoader(f Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher:  f,
		reporter: NopReporter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches and decodes location.
func (l *Loader) Load(ctx context.Context, location string) Dataset {
	start := l.now()
	ds := Dataset{Source: location, LoadedAt: start}

	records, failure := l.load(ctx, location)
	ds.Duration = l.now().Sub(start)
	if failure != nil {
		ds.Failure = failure
	} else {
		ds.Records = records
	}

	l.reporter.Report(ds)
	return ds
}

func (l *Loader) load(ctx context.Context, location string) ([]events.Event, *LoadFailure) {
	data, format, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		stage := StageFetch
		var statusErr *source.StatusError
		if errors.As(err, &statusErr) {
			stage = StageStatus
		}
		return nil, &LoadFailure{Source: location, Stage: stage, Err: err}
	}

	records, err := Decode(data, format)
	if err != nil {
		return nil, &LoadFailure{Source: location, Stage: StageDecode, Err: err}
	}
	return records, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode parses a payload in the given format.
func Decode(data []byte, format source.Format) ([]events.Event, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	switch format {
	case source.FormatCSV:
		return decodeCSV(data)
	default:
		return events.DecodeJSON(data)
	}
}

// decodeCSV reads the display-subset export: one header row, then records.
// Ragged rows are tolerated.
func decodeCSV(data []byte) ([]events.Event, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []events.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	out := []events.Event{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %w", len(out)+2, err)
		}
		out = append(out, events.FromRow(header, row))
	}
	return out, nil
}
