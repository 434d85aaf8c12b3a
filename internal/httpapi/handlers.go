package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Runner *Runner
}

// TriggerSync starts one dispatch cycle in the background and returns
// immediately. External cron hits this every few minutes; results land on
// the status endpoint.
func (h Handlers) TriggerSync(c *gin.Context) {
	if h.Runner == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "runner not configured"})
		return
	}

	if !h.Runner.TryStart() {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "sync already in progress",
			"status":  "running",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":         true,
		"message":         "sync started in background",
		"status":          "started",
		"check_status_at": "/sync-status",
	})
}

// SyncStatus reports whether a cycle is running and its last result.
func (h Handlers) SyncStatus(c *gin.Context) {
	if h.Runner == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "runner not configured"})
		return
	}
	c.JSON(http.StatusOK, h.Runner.Status())
}
