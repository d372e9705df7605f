// Package handlers provides HTTP request handlers for the otto API.
//
// Every handler is built by a HandleX factory that receives only the
// collaborators it needs, expressed as small interfaces so tests can pass
// fakes. Responses share one envelope:
//
//	{"status": "success", "data": ...}
//	{"status": "error", "message": "..."}
//
// ERROR MAPPING:
//   - unknown switch                    404
//   - malformed request or switch name  400
//   - no intent engine configured       501
//   - model cannot be constructed       503
//   - store failures                    500 "internal error" (cause logged)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/concave-dev/otto/internal/logging"
)

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"status":  "error",
		"message": message,
	})
}

// respondInternal logs err and answers 500 without leaking store details.
func respondInternal(c *gin.Context, op string, err error) {
	logging.Error("%s %s: %s failed: %v", c.Request.Method, c.FullPath(), op, err)
	respondError(c, http.StatusInternalServerError, "internal error")
}
