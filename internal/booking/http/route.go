package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc, writeLimiter gin.HandlerFunc) {
	group := g.Group("/bookings")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", writeLimiter, h.Create)
		group.POST("/:id/confirm", h.Confirm)
		group.POST("/:id/cancel", h.Cancel)
	}
}
