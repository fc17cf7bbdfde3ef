// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BridgeCalls counts bridge operations by method and outcome (ok, failed).
	BridgeCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentora",
		Subsystem: "bridge",
		Name:      "calls_total",
		Help:      "Bridge operations dispatched, by method and outcome.",
	}, []string{"method", "outcome"})

	// Generations counts completed generations by source (on-device, backend, simulated).
	Generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentora",
		Subsystem: "ai",
		Name:      "generations_total",
		Help:      "Generations served, by operation and source.",
	}, []string{"operation", "source"})

	// GenerationFailures counts workflows where every candidate failed.
	GenerationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentora",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Workflows that failed on every candidate, by operation.",
	}, []string{"operation"})

	// GenerationLatency observes generation wall time by operation.
	GenerationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mentora",
		Subsystem: "ai",
		Name:      "generation_seconds",
		Help:      "Generation latency, by operation.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"operation"})

	// Downloads counts model downloads by outcome (ok, failed).
	Downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentora",
		Subsystem: "models",
		Name:      "downloads_total",
		Help:      "Model downloads, by outcome.",
	}, []string{"outcome"})
)

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

// ObserveGeneration records one generation served from source.
func ObserveGeneration(operation, source string, started time.Time) {
	Generations.WithLabelValues(operation, source).Inc()
	GenerationLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
