// Package notify raises desktop notifications when a dataset load fails.
package notify

import (
	"fmt"

	"github.com/nixlim/evdash/internal/dataset"
)

// Notification is one desktop message.
type Notification struct {
	Title    string
	Body     string
	Critical bool
}

// Notifier delivers notifications. Implementations must be non-blocking.
type Notifier interface {
	Notify(n Notification)
}

// Reporter notifies on failed loads and on the first success after a
// failure, so a recovered source is announced once.
type Reporter struct {
	notifier Notifier
	failing  bool
}

func NewReporter(n Notifier) *Reporter {
	return &Reporter{notifier: n}
}

func (r *Reporter) Report(ds dataset.Dataset) {
	if ds.Failure != nil {
		r.failing = true
		r.notifier.Notify(Notification{
			Title:    fmt.Sprintf("evdash: %s failed", ds.Failure.Stage),
			Body:     fmt.Sprintf("Source: %s\n%v", truncateSource(ds.Source), ds.Failure.Err),
			Critical: true,
		})
		return
	}
	if r.failing {
		r.failing = false
		r.notifier.Notify(Notification{
			Title: "evdash: data loaded",
			Body:  fmt.Sprintf("Source: %s\n%d records", truncateSource(ds.Source), ds.Len()),
		})
	}
}

// truncateSource shortens a location for display in notifications.
func truncateSource(s string) string {
	r := []rune(s)
	if len(r) <= 60 {
		return s
	}
	return "..." + string(r[len(r)-57:])
}
