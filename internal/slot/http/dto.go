package http

import (
	"time"

	"github.com/slotpark/parking-slot-backend/internal/photo"
	"github.com/slotpark/parking-slot-backend/internal/slot"
)

type CreateSlotBody struct {
	Number           string `json:"number" binding:"required"`
	Category         string `json:"category"`
	RateCentsPerHour *int64 `json:"rate_cents_per_hour"`
}

// UpdateSlotBody distinguishes "leave the rate alone" (rate_cents_per_hour
// key absent) from "switch to quote-required" (key present and null) via
// the RateSet marker filled in by the handler.
type UpdateSlotBody struct {
	Number           *string `json:"number"`
	Category         *string `json:"category"`
	Status           *string `json:"status" binding:"omitempty,oneof=active inactive"`
	RateCentsPerHour *int64  `json:"rate_cents_per_hour"`
	RateSet          bool    `json:"-"`
}

type SlotResponse struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	Number           string    `json:"number"`
	Category         string    `json:"category"`
	RateCentsPerHour *int64    `json:"rate_cents_per_hour"`
	QuoteRequired    bool      `json:"quote_required"`
	Status           string    `json:"status"`
	PhotoURL         *string   `json:"photo_url,omitempty"`
	ThumbnailURL     *string   `json:"thumbnail_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewSlotResponse(s *slot.Slot) SlotResponse {
	resp := SlotResponse{
		ID:               s.ID,
		OwnerID:          s.OwnerID,
		Number:           s.Number,
		Category:         s.Category,
		RateCentsPerHour: s.RateCentsPerHour,
		QuoteRequired:    s.QuoteRequired(),
		Status:           string(s.Status),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.PhotoID != nil {
		u := photo.URL(*s.PhotoID)
		t := photo.ThumbnailURL(*s.PhotoID)
		resp.PhotoURL = &u
		resp.ThumbnailURL = &t
	}
	return resp
}

// EditableResponse reports how many active bookings block rate/category
// edits on a slot.
type EditableResponse struct {
	Editable       bool `json:"editable"`
	ActiveBookings int  `json:"active_bookings"`
}
