package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Query pipeline metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total queries by outcome and failed stage",
		},
		[]string{"status", "stage"}, // status: ok, failed; stage empty on success
	)

	QueryStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_stage_duration_seconds",
			Help:      "Duration of each query pipeline stage",
			Buckets:   []float64{0.0005, 0.005, 0.05, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"stage"},
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end query duration",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 13},
		},
	)

	QueryMatches = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_matches",
			Help:      "Number of matches retrieved per query",
			Buckets:   []float64{0, 1, 3, 5, 8, 10, 20, 50},
		},
	)

	QueryCitationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_citations_total",
			Help:      "Citation markers found in generated answers",
		},
		[]string{"valid"}, // true, false
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Query result events published to the history stream",
		},
		[]string{"status"},
	)
)

var pipelineOnce sync.Once

// RegisterPipelineMetrics registers pipeline metrics with the default registry.
func RegisterPipelineMetrics() {
	pipelineOnce.Do(func() {
		prometheus.MustRegister(
			QueriesTotal,
			QueryStageDuration,
			QueryDuration,
			QueryMatches,
			QueryCitationsTotal,
			EventsPublishedTotal,
		)
	})
}

// RegisterAll registers every metric group. Safe to call repeatedly.
func RegisterAll() {
	RegisterEmbeddingMetrics()
	RegisterGenerationMetrics()
	RegisterPipelineMetrics()
	RegisterHTTPMetrics()
}
