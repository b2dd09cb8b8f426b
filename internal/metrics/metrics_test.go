package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nixlim/evdash/internal/dataset"
	"github.com/nixlim/evdash/internal/events"
)

func TestReport_CountsOutcomes(t *testing.T) {
	m := New()

	m.Report(dataset.Dataset{
		Records:  make([]events.Event, 4),
		LoadedAt: time.Unix(1700000000, 0),
		Duration: 20 * time.Millisecond,
	})
	if got := testutil.ToFloat64(m.datasetRecords); got != 4 {
		t.Errorf("dataset_records = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.lastLoadTimestamp); got != 1700000000 {
		t.Errorf("last_success_timestamp_seconds = %v", got)
	}

	m.Report(dataset.Dataset{Failure: &dataset.LoadFailure{Stage: dataset.StageFetch, Err: errors.New("x")}})

	if got := testutil.ToFloat64(m.loadsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("loads_total{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.loadsTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("loads_total{failed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.datasetRecords); got != 0 {
		t.Errorf("failed load should zero dataset_records, got %v", got)
	}
}

func TestObserveFilter_ViaView(t *testing.T) {
	m := New()
	v := dataset.NewView(dataset.Dataset{Records: []events.Event{
		{EventCategory: "Combat"},
		{EventCategory: "Talk"},
	}})
	v.SetObserver(m)

	v.SetCategory("Combat")
	v.Reset()

	if got := testutil.ToFloat64(m.filterApplications); got != 2 {
		t.Errorf("filter_applications_total = %v, want 2", got)
	}
}

func TestHandler_ServesExposition(t *testing.T) {
	m := New()
	m.ObserveFilter(3, 10)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{"evdash_filter_applications_total 1", "evdash_filter_matches_bucket", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
