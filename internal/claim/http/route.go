package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	rooms := g.Group("/rooms")
	rooms.Use(authMiddleware)
	{
		rooms.GET("/:id/slots", h.ListSlots)
		rooms.GET("/:id/availability", h.GetAvailability)
		rooms.GET("/:id/events", h.Watch)
	}

	claims := g.Group("/claims")
	claims.Use(authMiddleware)
	{
		claims.GET("", h.List)
		claims.POST("/hold", h.CreateHold)
		claims.POST("/:id/confirm", h.Confirm)
		claims.DELETE("/:id", h.Cancel)
	}
}
