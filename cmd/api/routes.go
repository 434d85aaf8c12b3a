package main

import (
	"freight-dispatch/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, apiSecret string) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "service": "freight-dispatch"})
	})
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Freight In-Transit Dispatch",
			"status":  "running",
			"endpoints": gin.H{
				"health":          "/healthz",
				"in_transit_sync": "/sync-in-transit (POST)",
				"sync_status":     "/sync-status (GET)",
			},
		})
	})

	// protected trigger surface
	auth := httpapi.RequireBearerSecret(apiSecret)
	r.POST("/sync-in-transit", auth, h.TriggerSync)
	r.GET("/sync-status", auth, h.SyncStatus)
}
