package booking

import (
	"net/http"
	"time"

	"github.com/slotpark/parking-slot-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrInvalidRange     = apperror.New(http.StatusBadRequest, "start time must be before end time")
	ErrPastBooking      = apperror.New(http.StatusBadRequest, "cannot create booking in the past")
	ErrSlotNotFound     = apperror.New(http.StatusNotFound, "slot not found")
	ErrSlotInactive     = apperror.New(http.StatusUnprocessableEntity, "slot is not accepting bookings")
	ErrSlotConflict     = apperror.New(http.StatusConflict, "time slot already booked")
	ErrNotSlotOwner     = apperror.New(http.StatusForbidden, "only the slot owner may confirm")
	ErrNotRenter        = apperror.New(http.StatusForbidden, "only the renter may cancel")
	ErrWrongState       = apperror.New(http.StatusConflict, "booking is not pending")
	ErrAlreadyFinalized = apperror.New(http.StatusConflict, "booking is already cancelled or completed")
	ErrTooLateToCancel  = apperror.New(http.StatusConflict, "cancellation window has passed")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"

	// StatusCompleted is never stored. It is derived at read time from a
	// confirmed booking whose end time has passed.
	StatusCompleted Status = "completed"
)

// Booking is a reservation of one slot for a half-open time range.
// PriceCents is a snapshot taken at creation: nil means the slot was
// quote-required at the time, and the value is never recomputed even if
// the slot's rate later changes.
type Booking struct {
	ID          string
	SlotID      string
	SlotNumber  string
	SlotOwnerID string
	RenterID    string
	RenterName  string
	StartTime   time.Time
	EndTime     time.Time
	PriceCents  *int64
	Status      Status
	Note        *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EffectiveStatus resolves the derived completed state: a confirmed
// booking whose end time has passed reads as completed.
func (b *Booking) EffectiveStatus(now time.Time) Status {
	if b.Status == StatusConfirmed && !b.EndTime.After(now) {
		return StatusCompleted
	}
	return b.Status
}

// QuoteRequired reports whether the price is pending manual negotiation.
func (b *Booking) QuoteRequired() bool {
	return b.PriceCents == nil
}

// Filter defines parameters for listing bookings.
type Filter struct {
	RenterID    string
	SlotID      string
	SlotOwnerID string
	Status      string
	Page        int
	PageSize    int
}
