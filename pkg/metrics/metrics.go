// Package metrics exposes Prometheus instrumentation for catalog fetches and
// sync runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Sync run metrics
	SyncSubjectsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wksync_sync_subjects_total",
			Help: "Number of subjects in the current sync run",
		},
	)

	SyncSubjectsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wksync_sync_subjects_completed_total",
			Help: "Reconciled subjects by outcome",
		},
		[]string{"outcome"}, // "succeeded", "failed"
	)

	SyncInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wksync_sync_in_flight",
			Help: "Reconciliations currently running",
		},
	)

	ReconcileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wksync_reconcile_duration_seconds",
			Help:    "Duration of a single subject reconciliation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject_type"},
	)

	SyncStageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wksync_sync_stage_errors_total",
			Help: "Store failures by reconciliation stage",
		},
		[]string{"stage"},
	)

	// Content source metrics
	FetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wksync_fetch_requests_total",
			Help: "Catalog page requests by result",
		},
		[]string{"result"}, // "success", "failure", "rejected"
	)

	FetchedSubjects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wksync_fetched_subjects_total",
			Help: "Subjects decoded from catalog pages",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wksync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wksync_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
