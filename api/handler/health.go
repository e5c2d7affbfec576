package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/linkpeek/models"
)

// SessionInfo exposes the browser session state for health reporting.
type SessionInfo interface {
	Launched() bool
}

// Health returns a handler for GET /api/v1/health.
func Health(session SessionInfo, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         "healthy",
			Uptime:         time.Since(startTime).Round(time.Second).String(),
			BrowserRunning: session.Launched(),
			Version:        "0.1.0",
		})
	}
}
