// Package metrics exposes Prometheus instrumentation for the processing
// governor and page pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors for one governor.
type Metrics struct {
	// Pipeline
	PagesTotal   prometheus.Counter
	ChunksTotal  *prometheus.CounterVec
	MergesTotal  prometheus.Counter
	PageDuration prometheus.Histogram

	// Governor
	DocumentsTotal *prometheus.CounterVec
	PausesTotal    *prometheus.CounterVec
	QueueDepth     prometheus.Gauge
}

// New registers the collectors on reg. Passing a fresh registry per
// governor keeps tests from colliding on duplicate registration.
//
// Metrics:
//   - decisions_pages_processed_total
//   - decisions_chunks_total{verdict} - accept, signal or reject
//   - decisions_merges_total
//   - decisions_page_duration_seconds
//   - decisions_documents_total{status} - done or error
//   - decisions_pauses_total{reason} - time, memory or user
//   - decisions_queue_depth
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PagesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "decisions_pages_processed_total",
			Help: "Total number of pages run through the pipeline",
		}),
		ChunksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decisions_chunks_total",
				Help: "Total number of scored chunks by verdict",
			},
			[]string{"verdict"},
		),
		MergesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "decisions_merges_total",
			Help: "Total number of candidates merged into an existing entry",
		}),
		PageDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "decisions_page_duration_seconds",
			Help:    "Time spent processing one page",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		DocumentsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decisions_documents_total",
				Help: "Total number of documents that reached a terminal status",
			},
			[]string{"status"},
		),
		PausesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decisions_pauses_total",
				Help: "Total number of document pauses by reason",
			},
			[]string{"reason"},
		),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "decisions_queue_depth",
			Help: "Documents waiting to be processed",
		}),
	}
}

// NewUnregistered builds collectors that are never exported.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
