package reconciler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// iterationsTotal counts reconciliation iterations by result
	iterationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otto_reconciler_iterations_total",
		Help: "Total reconciliation iterations by result",
	}, []string{"result"})

	// iterationDuration tracks the wall time of one iteration
	iterationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "otto_reconciler_iteration_duration_seconds",
		Help:    "Reconciliation iteration duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	})

	// driftChanges is the number of differing leaves in the last report
	driftChanges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "otto_reconciler_drift_changes",
		Help: "Number of differences found by the last successful iteration",
	})

	// fetchFailures counts per-switch live state fetch failures
	fetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "otto_reconciler_fetch_failures_total",
		Help: "Total live switch state fetches that failed",
	})

	// syncOperations counts registry writes made by the sync sink
	syncOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otto_reconciler_sync_operations_total",
		Help: "Registry writes applied by the sync sink by operation and result",
	}, []string{"operation", "result"})
)
