package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health states. A degraded daemon still serves requests but its reconciler
// is stopped or its last iteration failed.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)

// HealthComponents are the runtime parts summarized by the health check.
type HealthComponents struct {
	Registry   SwitchRegistry
	Intents    IntentDeclarer
	Pool       PoolInspector
	Reconciler ReconcilerInspector
}

// ReconcilerHealth is the reconciler part of the health response.
type ReconcilerHealth struct {
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"lastRun"`
	LastError string    `json:"lastError,omitempty"`
}

// Represents the health check response
type HealthResponse struct {
	Status         string           `json:"status"`
	Timestamp      time.Time        `json:"timestamp"`
	Version        string           `json:"version"`
	Uptime         string           `json:"uptime"`
	Switches       int              `json:"switches"`
	IntentEngine   bool             `json:"intentEngine"`
	IdleProcessors int              `json:"idleProcessors"`
	Reconciler     ReconcilerHealth `json:"reconciler"`
}

// HandleHealth returns the daemon health: registered switch count, whether
// intents can be fulfilled, idle processors and reconciler liveness.
func HandleHealth(version string, startTime time.Time, components HealthComponents) gin.HandlerFunc {
	return func(c *gin.Context) {
		uptime := time.Since(startTime).Round(time.Second)

		idle := 0
		for _, n := range components.Pool.Stats().Idle {
			idle += n
		}
		rec := components.Reconciler.Stats()

		status := HealthHealthy
		if !rec.Running || rec.LastError != "" {
			status = HealthDegraded
		}

		response := HealthResponse{
			Status:         status,
			Timestamp:      time.Now(),
			Version:        version,
			Uptime:         uptime.String(),
			Switches:       components.Registry.Len(),
			IntentEngine:   components.Intents.HasEngine(),
			IdleProcessors: idle,
			Reconciler: ReconcilerHealth{
				Running:   rec.Running,
				LastRun:   rec.LastRun,
				LastError: rec.LastError,
			},
		}

		c.JSON(http.StatusOK, response)
	}
}
