package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/slots")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.GET("/:id/editable", h.Editable)
		group.POST("", h.Create)
		group.PATCH("/:id", h.Update)
		group.POST("/:id/photo", h.UploadPhoto)
	}
}
