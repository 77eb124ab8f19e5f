package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slotpark/parking-slot-backend/internal/photo"
	"github.com/slotpark/parking-slot-backend/internal/pkg/response"
)

type Handler struct {
	photoService photo.Service
}

func NewHandler(photoService photo.Service) *Handler {
	return &Handler{
		photoService: photoService,
	}
}

// ServePhoto streams the full-size image by ID.
func (h *Handler) ServePhoto(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo ID is required"})
		return
	}

	stream, p, err := h.photoService.Download(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", p.ContentType)
	c.Header("Content-Disposition", "inline; filename=\""+p.Filename+"\"")

	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, stream)
}

// ServeThumbnail streams the thumbnail by photo ID. Thumbnails are always JPEG.
func (h *Handler) ServeThumbnail(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo ID is required"})
		return
	}

	stream, p, err := h.photoService.DownloadThumbnail(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "image/jpeg")
	c.Header("Content-Disposition", "inline; filename=\""+p.Filename+"_thumb.jpg\"")

	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, stream)
}
