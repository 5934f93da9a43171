package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", h.Create)
		group.POST("/:id/complete", h.Complete)
		group.POST("/:id/cancel", h.Cancel)
	}
}

// RegisterAvailabilityRoutes mounts the availability projections under the
// rooms path; they read booking data, so they live with the booking module.
func RegisterAvailabilityRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/rooms")
	group.Use(authMiddleware)
	{
		group.GET("/availability", h.AllAvailabilities)
		group.GET("/:id/availability", h.Availability)
	}
}
