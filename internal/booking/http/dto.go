package http

import (
	"time"

	"github.com/slotpark/parking-slot-backend/internal/booking"
)

type CreateBookingBody struct {
	SlotID    string    `json:"slot_id" binding:"required,uuid"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Note      string    `json:"note"`
}

// SlotTag is the minimal slot reference embedded in booking responses.
type SlotTag struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

type BookingResponse struct {
	ID            string    `json:"id"`
	Slot          SlotTag   `json:"slot"`
	RenterID      string    `json:"renter_id"`
	RenterName    string    `json:"renter_name"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	PriceCents    *int64    `json:"price_cents"`
	QuoteRequired bool      `json:"quote_required"`
	Note          *string   `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewBookingResponse renders a booking. The status is resolved against
// now so finished confirmed bookings read as completed.
func NewBookingResponse(b *booking.Booking, now time.Time) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		Slot:          SlotTag{ID: b.SlotID, Number: b.SlotNumber},
		RenterID:      b.RenterID,
		RenterName:    b.RenterName,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Status:        string(b.EffectiveStatus(now)),
		PriceCents:    b.PriceCents,
		QuoteRequired: b.QuoteRequired(),
		Note:          b.Note,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}
