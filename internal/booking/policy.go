package booking

import (
	"time"
)

// DefaultCancelGrace is the fallback window after a booking's start during
// which the renter may still cancel. Overridden by the CANCEL_GRACE config.
const DefaultCancelGrace = time.Hour

// CancelPolicy decides whether a cancellation request is authorized.
type CancelPolicy struct {
	// Grace is how long after the booking's start time cancellation
	// remains permitted. Bookings that have not started yet are always
	// cancellable.
	Grace time.Duration
}

// Authorize applies the cancellation rules in order: requester identity,
// booking state, then the grace window. A nil return means the cancel
// transition may proceed.
func (p CancelPolicy) Authorize(b *Booking, actorID string, now time.Time) error {
	if b.RenterID != actorID {
		return ErrNotRenter
	}

	switch b.EffectiveStatus(now) {
	case StatusPending, StatusConfirmed:
		// cancellable states
	default:
		return ErrAlreadyFinalized
	}

	if now.Sub(b.StartTime) > p.Grace {
		return ErrTooLateToCancel
	}

	return nil
}
