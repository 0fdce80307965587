// Package metrics provides the Prometheus metrics for the indexing service
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the indexing service
type Metrics struct {
	// indexing pipeline metrics
	VideosIndexedTotal    prometheus.Counter
	FragmentsIndexedTotal prometheus.Counter
	BulkBatchesTotal      *prometheus.CounterVec
	BulkBatchDuration     prometheus.Histogram

	// reindex job metrics
	ReindexJobsTotal *prometheus.CounterVec
	ReindexDuration  prometheus.Histogram
	ReindexRunning   prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registerer
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics and registers them on the given
// registerer. Tests use a private registry to avoid duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{}

	m.VideosIndexedTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "subsearch_videos_indexed_total",
		Help: "Total number of videos run through the indexing pipeline",
	})

	m.FragmentsIndexedTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "subsearch_fragments_indexed_total",
		Help: "Total number of sentence fragments written to the search engine",
	})

	m.BulkBatchesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "subsearch_bulk_batches_total",
		Help: "Total number of bulk write batches dispatched to the search engine",
	}, []string{"status"})

	m.BulkBatchDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "subsearch_bulk_batch_duration_seconds",
		Help:    "Duration of bulk write batches in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	m.ReindexJobsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "subsearch_reindex_jobs_total",
		Help: "Total number of full reindex jobs by outcome",
	}, []string{"status"})

	m.ReindexDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "subsearch_reindex_duration_seconds",
		Help:    "Duration of full reindex jobs in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	m.ReindexRunning = factory.NewGauge(prometheus.GaugeOpts{
		Name: "subsearch_reindex_running",
		Help: "Whether a full reindex job is currently running",
	})

	m.HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "subsearch_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	m.HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "subsearch_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	return m
}
