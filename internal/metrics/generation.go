package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Answer generation provider metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Total number of completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_request_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 13},
		},
		[]string{"provider", "model"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_tokens_total",
			Help:      "Total completion tokens consumed",
		},
		[]string{"provider", "model", "type"}, // prompt, completion
	)
)

var generationOnce sync.Once

// RegisterGenerationMetrics registers generation metrics with the default registry.
func RegisterGenerationMetrics() {
	generationOnce.Do(func() {
		prometheus.MustRegister(
			GenerationRequestsTotal,
			GenerationRequestDuration,
			GenerationTokensTotal,
		)
	})
}
