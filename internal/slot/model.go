package slot

import (
	"fmt"
	"net/http"
	"time"

	"github.com/slotpark/parking-slot-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "slot not found")
	ErrNotOwner      = apperror.New(http.StatusForbidden, "only the slot owner may do this")
	ErrEmptyNumber   = apperror.New(http.StatusBadRequest, "slot number cannot be empty")
	ErrInvalidRate   = apperror.New(http.StatusBadRequest, "hourly rate must be greater than zero")
	ErrInvalidStatus = apperror.New(http.StatusBadRequest, "invalid slot status")
)

// ActiveBookingsError blocks rate or category edits while live bookings
// reference the slot. Count is surfaced to the caller.
type ActiveBookingsError struct {
	Count int
}

func (e *ActiveBookingsError) Error() string {
	return fmt.Sprintf("slot has %d active booking(s)", e.Count)
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Slot is a bookable parking space owned by one user.
// RateCentsPerHour is nil for quote-required slots: bookings are still
// accepted, but the price is negotiated outside the system.
type Slot struct {
	ID               string
	OwnerID          string
	Number           string
	Category         string
	RateCentsPerHour *int64
	Status           Status
	PhotoID          *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// QuoteRequired reports whether the slot has no fixed hourly rate.
func (s *Slot) QuoteRequired() bool {
	return s.RateCentsPerHour == nil
}

// Filter defines parameters for listing slots.
type Filter struct {
	OwnerID  string
	Category string
	Status   string
	Page     int
	PageSize int
}
