// Package metrics exposes load and filter activity as Prometheus metrics on
// a private registry, so tests and multiple servers never collide on the
// global one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nixlim/evdash/internal/dataset"
)

const namespace = "evdash"

// Metrics implements dataset.Reporter and dataset.FilterObserver.
type Metrics struct {
	registry *prometheus.Registry

	loadsTotal         *prometheus.CounterVec
	loadDuration       prometheus.Histogram
	datasetRecords     prometheus.Gauge
	lastLoadTimestamp  prometheus.Gauge
	filterApplications prometheus.Counter
	filterMatches      prometheus.Histogram
}

// New creates the collectors and registers them, plus the Go runtime and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.loadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loads_total",
		Help:      "Dataset loads by outcome",
	}, []string{"status"})
	m.loadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "load_duration_seconds",
		Help:      "Time spent fetching and decoding the dataset",
		Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
	})
	m.datasetRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dataset_records",
		Help:      "Records in the currently loaded dataset",
	})
	m.lastLoadTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful load",
	})
	m.filterApplications = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filter_applications_total",
		Help:      "Number of times the filter was applied",
	})
	m.filterMatches = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "filter_matches",
		Help:      "Records passing the filter per application",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	m.registry.MustRegister(
		m.loadsTotal, m.loadDuration, m.datasetRecords, m.lastLoadTimestamp,
		m.filterApplications, m.filterMatches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Report records a load outcome. A failed load zeroes the record gauge
// because the dataset it leaves behind is empty.
func (m *Metrics) Report(ds dataset.Dataset) {
	m.loadDuration.Observe(ds.Duration.Seconds())
	if ds.Failed() {
		m.loadsTotal.WithLabelValues("failed").Inc()
		m.datasetRecords.Set(0)
		return
	}
	m.loadsTotal.WithLabelValues("ok").Inc()
	m.datasetRecords.Set(float64(ds.Len()))
	m.lastLoadTimestamp.Set(float64(ds.LoadedAt.Unix()))
}

// ObserveFilter records one filter application.
func (m *Metrics) ObserveFilter(visible, total int) {
	m.filterApplications.Inc()
	m.filterMatches.Observe(float64(visible))
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
