// Package storage keeps a journal of dataset loads: when each load ran,
// where from, how many records it produced and, for failures, which stage
// failed. The journal is diagnostic only; the dashboard never reads
// records back from it.
package storage

import (
	"time"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// LoadEntry is one journaled load.
type LoadEntry struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Records   int           `json:"record_count"`
	Status    string        `json:"status"`
	Stage     string        `json:"stage,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Failed reports whether the entry records a failed load.
func (e LoadEntry) Failed() bool {
	return e.Status == StatusFailed
}

// Journal records load entries and returns the most recent ones.
type Journal interface {
	Record(entry LoadEntry)
	// Recent returns up to limit entries, newest first.
	Recent(limit int) ([]LoadEntry, error)
	Close() error
}
