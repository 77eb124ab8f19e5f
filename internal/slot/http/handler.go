package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/slotpark/parking-slot-backend/internal/auth"
	"github.com/slotpark/parking-slot-backend/internal/photo"
	"github.com/slotpark/parking-slot-backend/internal/pkg/response"
	"github.com/slotpark/parking-slot-backend/internal/slot"
)

type Handler struct {
	service      slot.Service
	photoService photo.Service
}

func NewHandler(service slot.Service, photoService photo.Service) *Handler {
	return &Handler{
		service:      service,
		photoService: photoService,
	}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateSlotBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	s, err := h.service.Create(c.Request.Context(), slot.CreateRequest{
		OwnerID:          userID,
		Number:           body.Number,
		Category:         body.Category,
		RateCentsPerHour: body.RateCentsPerHour,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewSlotResponse(s))
}

func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSlotResponse(s))
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := slot.Filter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	if c.Query("mine") == "true" {
		filter.OwnerID = auth.GetUserID(c)
	}

	slots, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list slots"})
		return
	}

	items := make([]SlotResponse, len(slots))
	for i, s := range slots {
		items[i] = NewSlotResponse(s)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, page, pageSize, total))
}

func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var body UpdateSlotBody
	if err := json.Unmarshal(raw, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// A present-but-null rate key means "switch to quote-required", so
	// key presence has to be checked separately from the decoded value.
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err == nil {
		_, body.RateSet = keys["rate_cents_per_hour"]
	}

	req := slot.UpdateRequest{
		Number:   body.Number,
		Category: body.Category,
		Status:   body.Status,
	}
	if body.RateSet {
		req.Rate = &slot.RateUpdate{CentsPerHour: body.RateCentsPerHour}
	}

	s, err := h.service.Update(c.Request.Context(), id, req, auth.GetUserID(c))
	if err != nil {
		var activeErr *slot.ActiveBookingsError
		if errors.As(err, &activeErr) {
			c.JSON(http.StatusConflict, gin.H{
				"error":           activeErr.Error(),
				"active_bookings": activeErr.Count,
			})
			return
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSlotResponse(s))
}

func (h *Handler) Editable(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	count, err := h.service.Editable(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, EditableResponse{
		Editable:       count == 0,
		ActiveBookings: count,
	})
}

// UploadPhoto stores a slot photo and links it to the slot. The blob is
// rolled back if the link write fails.
func (h *Handler) UploadPhoto(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	userID := auth.GetUserID(c)

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo is required"})
		return
	}

	p, err := h.photoService.Upload(c.Request.Context(), fileHeader, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.SetPhoto(c.Request.Context(), id, userID, p.ID); err != nil {
		_ = h.photoService.Delete(c.Request.Context(), p.ID)
		response.Error(c, err)
		return
	}

	var thumbURL *string
	if p.ThumbnailPath != nil {
		t := photo.ThumbnailURL(p.ID)
		thumbURL = &t
	}

	c.JSON(http.StatusOK, gin.H{
		"photo_id":      p.ID,
		"url":           photo.URL(p.ID),
		"thumbnail_url": thumbURL,
	})
}
