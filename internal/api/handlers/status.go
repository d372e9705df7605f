// Runtime status endpoints.
//
// ENDPOINTS:
//   - GET /pool: idle intent processors per model
//   - GET /reconciler: reconciler statistics and the last drift report

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/concave-dev/otto/internal/intentpool"
	"github.com/concave-dev/otto/internal/reconciler"
)

// PoolInspector exposes pool statistics.
type PoolInspector interface {
	Stats() intentpool.Stats
}

// ReconcilerInspector exposes reconciler statistics.
type ReconcilerInspector interface {
	Stats() reconciler.Stats
}

// HandlePool returns the pool's idle processors.
func HandlePool(pool PoolInspector) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondData(c, pool.Stats())
	}
}

// HandleReconciler returns the reconciler statistics. The summary line is
// meant for humans.
func HandleReconciler(r ReconcilerInspector) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := r.Stats()
		respondData(c, gin.H{
			"summary":      stats.Describe(),
			"running":      stats.Running,
			"interval":     stats.Interval.String(),
			"iterations":   stats.Iterations,
			"failures":     stats.Failures,
			"lastRun":      stats.LastRun,
			"lastDuration": stats.LastDuration.String(),
			"lastError":    stats.LastError,
			"lastReport":   stats.LastReport,
		})
	}
}
