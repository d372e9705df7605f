// Intent endpoints: declaration and the activity dashboard queries.
//
// ENDPOINTS:
//   - POST /intents: declare an intent
//   - GET /intents/latest?limit=N: newest processed intents
//   - GET /intents/weekly: processed intents per day over the last week
//   - GET /intents/top: processed intents per declarer
//   - GET /intents/model-usage: processed intents per model

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/concave-dev/otto/internal/history"
	"github.com/concave-dev/otto/internal/intentpool"
	"github.com/concave-dev/otto/internal/intents"
)

// HistoryReader is the history surface the activity handlers read.
type HistoryReader interface {
	LatestActivity(ctx context.Context, limit int) (history.Activity, error)
	WeeklyActivity(ctx context.Context) (history.Counts, error)
	TopActivity(ctx context.Context) (history.Counts, error)
	ModelUsage(ctx context.Context) (history.Counts, error)
}

// IntentDeclarer fulfils declared intents.
type IntentDeclarer interface {
	HasEngine() bool
	Declare(ctx context.Context, req intents.Request) (intents.Result, error)
}

// DeclareIntentRequest is the POST /intents body.
type DeclareIntentRequest struct {
	Intent     string `json:"intent" binding:"required"`
	Model      string `json:"model"`
	DeclaredBy string `json:"declaredBy"`
}

// HandleDeclareIntent fulfils an intent. Without a configured engine it
// answers 501. An empty declaredBy falls back to defaultDeclarer.
func HandleDeclareIntent(declarer IntentDeclarer, defaultDeclarer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if declarer == nil || !declarer.HasEngine() {
			respondError(c, http.StatusNotImplemented, "intent engine not configured")
			return
		}

		var req DeclareIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "No intent found")
			return
		}
		if req.DeclaredBy == "" {
			req.DeclaredBy = defaultDeclarer
		}

		result, err := declarer.Declare(c.Request.Context(), intents.Request{
			Intent:   req.Intent,
			Declarer: req.DeclaredBy,
			Model:    req.Model,
		})
		switch {
		case err == nil:
			respondData(c, result)
		case errors.Is(err, intents.ErrEmptyIntent):
			respondError(c, http.StatusBadRequest, "No intent found")
		case errors.Is(err, intents.ErrNoEngine):
			respondError(c, http.StatusNotImplemented, "intent engine not configured")
		case errors.Is(err, intentpool.ErrModelUnavailable):
			respondError(c, http.StatusServiceUnavailable, err.Error())
		default:
			respondInternal(c, "declare intent", err)
		}
	}
}

// HandleLatestActivity returns the newest processed intents.
func HandleLatestActivity(reader HistoryReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				respondError(c, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		activity, err := reader.LatestActivity(c.Request.Context(), limit)
		if err != nil {
			respondInternal(c, "latest activity", err)
			return
		}
		respondData(c, activity)
	}
}

// HandleWeeklyActivity returns processed intents per day.
func HandleWeeklyActivity(reader HistoryReader) gin.HandlerFunc {
	return handleCounts("weekly activity", reader.WeeklyActivity)
}

// HandleTopActivity returns processed intents per declarer.
func HandleTopActivity(reader HistoryReader) gin.HandlerFunc {
	return handleCounts("top activity", reader.TopActivity)
}

// HandleModelUsage returns processed intents per model.
func HandleModelUsage(reader HistoryReader) gin.HandlerFunc {
	return handleCounts("model usage", reader.ModelUsage)
}

func handleCounts(op string, query func(context.Context) (history.Counts, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := query(c.Request.Context())
		if err != nil {
			respondInternal(c, op, err)
			return
		}
		respondData(c, counts)
	}
}
