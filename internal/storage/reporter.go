package storage

import (
	"github.com/google/uuid"

	"github.com/nixlim/evdash/internal/dataset"
)

// Reporter journals every load outcome.
type Reporter struct {
	journal Journal
}

func NewReporter(j Journal) *Reporter {
	return &Reporter{journal: j}
}

func (r *Reporter) Report(ds dataset.Dataset) {
	r.journal.Record(EntryFromDataset(ds))
}

// EntryFromDataset builds a journal entry with a fresh id.
func EntryFromDataset(ds dataset.Dataset) LoadEntry {
	e := LoadEntry{
		ID:        uuid.NewString(),
		Source:    ds.Source,
		StartedAt: ds.LoadedAt,
		Duration:  ds.Duration,
		Records:   ds.Len(),
		Status:    StatusOK,
	}
	if ds.Failure != nil {
		e.Status = StatusFailed
		e.Stage = string(ds.Failure.Stage)
		if ds.Failure.Err != nil {
			e.Error = ds.Failure.Err.Error()
		}
	}
	return e
}
