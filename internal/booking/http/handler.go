package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/slotpark/parking-slot-backend/internal/auth"
	"github.com/slotpark/parking-slot-backend/internal/booking"
	"github.com/slotpark/parking-slot-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
	now     booking.NowFunc
}

// NewHandler builds the booking handlers. The clock resolves the derived
// completed status in responses; nil falls back to the system clock.
func NewHandler(service booking.Service, now booking.NowFunc) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		service: service,
		now:     now,
	}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	req := booking.CreateRequest{
		RenterID: userID,
		SlotID:   body.SlotID,
		Start:    body.StartTime,
		End:      body.EndTime,
		Note:     body.Note,
	}

	b, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b, h.now().UTC()))
}

func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b, h.now().UTC()))
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	userID := auth.GetUserID(c)

	filter := booking.Filter{
		SlotID:   c.Query("slot_id"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}

	// Renters see their own bookings; slot owners can flip to the
	// bookings made against their slots.
	if c.Query("role") == "owner" {
		filter.SlotOwnerID = userID
	} else {
		filter.RenterID = userID
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookings"})
		return
	}

	now := h.now().UTC()
	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b, now)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, page, pageSize, total))
}

func (h *Handler) Confirm(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	b, err := h.service.Confirm(c.Request.Context(), id, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b, h.now().UTC()))
}

func (h *Handler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), id, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b, h.now().UTC()))
}
