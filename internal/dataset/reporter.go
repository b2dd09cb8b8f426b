package dataset

import (
	"log/slog"
)

// Reporter is the diagnostic channel for load outcomes. Report is called
// once per load, successful or not, and must not block for long.
type Reporter interface {
	Report(ds Dataset)
}

// NopReporter discards reports.
type NopReporter struct{}

// Report is a no-op.
func (NopReporter) Report(Dataset) {}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Dataset)

// Report calls f(ds).
func (f ReporterFunc) Report(ds Dataset) { f(ds) }

// LogReporter writes load outcomes to a slog.Logger.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a LogReporter; a nil logger means slog.Default().
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

// Report logs failures at error level and successes at info level.
func (r *LogReporter) Report(ds Dataset) {
	if ds.Failure != nil {
		r.logger.Error("data load failed",
			"source", ds.Source,
			"stage", string(ds.Failure.Stage),
			"error", ds.Failure.Err,
			"duration", ds.Duration,
		)
		return
	}
	r.logger.Info("data loaded",
		"source", ds.Source,
		"records", ds.Len(),
		"duration", ds.Duration,
	)
}

// MultiReporter fans a report out to every wrapped reporter in order.
type MultiReporter struct {
	reporters []Reporter
}

// NewMultiReporter wraps reporters; nil entries are skipped.
func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	m := &MultiReporter{}
	for _, r := range reporters {
		if r != nil {
			m.reporters = append(m.reporters, r)
		}
	}
	return m
}

// Report delivers ds to every reporter.
func (m *MultiReporter) Report(ds Dataset) {
	for _, r := range m.reporters {
		r.Report(ds)
	}
}
