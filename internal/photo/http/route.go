package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/files")

	group.GET("/:id", h.ServePhoto)
	group.GET("/:id/thumbnail", h.ServeThumbnail)
}
