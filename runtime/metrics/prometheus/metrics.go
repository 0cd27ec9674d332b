// Package prometheus provides Prometheus metrics for the training data pipeline.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ttsdatagen"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Synthesis outcome label values.
const (
	OutcomeGenerated = "generated"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

var (
	// runsActive is a gauge of currently running CLI operations.
	runsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Number of currently running operations",
		},
	)

	// runDuration is a histogram of whole operation duration.
	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Histogram of operation duration in seconds",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"operation", "status"},
	)

	// providerRequestDuration is a histogram of LLM provider call duration.
	providerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of LLM provider calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "operation"},
	)

	// providerRequestsTotal is a counter of LLM provider calls.
	providerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of LLM provider calls",
		},
		[]string{"provider", "operation", "status"},
	)

	// sentencesAcceptedTotal counts sentences that passed validation and dedup.
	sentencesAcceptedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentences_accepted_total",
			Help:      "Total number of generated sentences accepted",
		},
		[]string{"provider"},
	)

	// generationAttemptsTotal counts sub-batch attempts by outcome.
	generationAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_attempts_total",
			Help:      "Total number of sentence generation attempts",
		},
		[]string{"outcome"}, // complete, short, exhausted, error
	)

	// synthesisTotal counts synthesis requests by outcome.
	synthesisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_total",
			Help:      "Total number of audio synthesis requests",
		},
		[]string{"backend", "outcome"},
	)

	// synthesisDuration is a histogram of TTS call duration.
	synthesisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Duration of TTS calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"backend"},
	)

	// audioBytesTotal counts audio bytes written.
	audioBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_total",
			Help:      "Total bytes of audio written",
		},
		[]string{"backend"},
	)

	// storeOperationsTotal counts training item store operations.
	storeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of store operations",
		},
		[]string{"operation", "status"},
	)

	// itemsExportedTotal counts items written to manifests or bundles.
	itemsExportedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_exported_total",
			Help:      "Total number of items exported",
		},
		[]string{"format"}, // manifest, bundle, audio
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		runsActive,
		runDuration,
		providerRequestDuration,
		providerRequestsTotal,
		sentencesAcceptedTotal,
		generationAttemptsTotal,
		synthesisTotal,
		synthesisDuration,
		audioBytesTotal,
		storeOperationsTotal,
		itemsExportedTotal,
	}
)

// StatusFor maps an error to a status label.
func StatusFor(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// RecordRunStart records an operation start.
func RecordRunStart() {
	runsActive.Inc()
}

// RecordRunEnd records an operation completion.
func RecordRunEnd(operation, status string, durationSeconds float64) {
	runsActive.Dec()
	runDuration.WithLabelValues(operation, status).Observe(durationSeconds)
}

// RecordProviderRequest records an LLM provider call.
func RecordProviderRequest(provider, operation, status string, durationSeconds float64) {
	providerRequestDuration.WithLabelValues(provider, operation).Observe(durationSeconds)
	providerRequestsTotal.WithLabelValues(provider, operation, status).Inc()
}

// RecordSentencesAccepted adds n accepted sentences.
func RecordSentencesAccepted(provider string, n int) {
	if n > 0 {
		sentencesAcceptedTotal.WithLabelValues(provider).Add(float64(n))
	}
}

// RecordGenerationAttempt records the outcome of one sub-batch attempt.
func RecordGenerationAttempt(outcome string) {
	generationAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordSynthesis records a synthesis outcome. Duration and bytes are only
// observed for generated audio.
func RecordSynthesis(backend, outcome string, durationSeconds float64, bytes int64) {
	synthesisTotal.WithLabelValues(backend, outcome).Inc()
	if outcome != OutcomeGenerated {
		return
	}
	synthesisDuration.WithLabelValues(backend).Observe(durationSeconds)
	if bytes > 0 {
		audioBytesTotal.WithLabelValues(backend).Add(float64(bytes))
	}
}

// RecordStoreOperation records a store operation.
func RecordStoreOperation(operation string, err error) {
	storeOperationsTotal.WithLabelValues(operation, StatusFor(err)).Inc()
}

// RecordItemsExported adds n exported items for a format.
func RecordItemsExported(format string, n int) {
	if n > 0 {
		itemsExportedTotal.WithLabelValues(format).Add(float64(n))
	}
}
