// Package metrics carries the service's performance counters twice over:
// Prometheus collectors for scraping and a process-lifetime Tracker whose
// snapshot feeds /status. Both are diagnostic; relaxed consistency between
// them is acceptable.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	modelLoadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatd",
			Subsystem: "model",
			Name:      "loads_total",
			Help:      "Completed model loads",
		},
	)

	modelLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chatd",
			Subsystem: "model",
			Name:      "load_duration_seconds",
			Help:      "Duration of model loads in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		},
	)

	inferencesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatd",
			Subsystem: "inference",
			Name:      "requests_total",
			Help:      "Inference calls by outcome",
		},
		[]string{"outcome"},
	)

	inferenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chatd",
			Subsystem: "inference",
			Name:      "duration_seconds",
			Help:      "Duration of inference calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	estTokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatd",
			Subsystem: "inference",
			Name:      "est_tokens_total",
			Help:      "Estimated tokens generated (response-length heuristic)",
		},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatd",
			Name:      "errors_total",
			Help:      "Classified errors by kind",
		},
		[]string{"kind"},
	)

	peakAllocBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chatd",
			Subsystem: "memory",
			Name:      "peak_alloc_bytes",
			Help:      "Peak heap allocation observed since process start",
		},
	)
)

func init() {
	prometheus.MustRegister(
		modelLoadsTotal,
		modelLoadDuration,
		inferencesTotal,
		inferenceDuration,
		estTokensTotal,
		errorsTotal,
		peakAllocBytes,
	)
}

// EstimateTokens approximates the token count of text at roughly four
// characters per token. Good enough for capacity dashboards, nothing else.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
