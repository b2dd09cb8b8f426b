// Package dataset owns the loaded event records and the filter state applied
// to them. Apply and FacetValues are pure; View is the stateful owner used
// by the renderers.
package dataset

import (
	"fmt"
	"time"

	"github.com/nixlim/evdash/internal/events"
)

// Dataset is one load of the source. It is replaced wholesale on reload and
// its Records are never modified.
type Dataset struct {
	Source   string
	Records  []events.Event
	LoadedAt time.Time
	Duration time.Duration

	// Failure is set when the load failed; Records is then empty.
	Failure *LoadFailure
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.Records)
}

// Failed reports whether the dataset is the empty stand-in for a failed load.
func (d Dataset) Failed() bool {
	return d.Failure != nil
}

// Stage is the step of a load that failed.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageStatus Stage = "status"
	StageDecode Stage = "decode"
)

// LoadFailure is the single error kind of the load boundary: network
// failure, non-success response or malformed payload.
type LoadFailure struct {
	Source string
	Stage  Stage
	Err    error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("data load failure (%s) from %s: %v", e.Stage, e.Source, e.Err)
}

func (e *LoadFailure) Unwrap() error {
	return e.Err
}
