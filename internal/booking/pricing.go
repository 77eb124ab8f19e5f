package booking

import (
	"github.com/slotpark/parking-slot-backend/internal/pkg/timerange"
)

// PriceCents computes rate × duration entirely in integer arithmetic so
// currency amounts never pick up floating-point drift. The rate applies
// per hour; the range contributes whole seconds, and the result is
// rounded half-up to the cent.
func PriceCents(rateCentsPerHour int64, r timerange.Range) int64 {
	secs := r.Seconds()
	return (rateCentsPerHour*secs + 1800) / 3600
}

// PriceSnapshot returns the price to store on a new booking: nil for a
// quote-required rate, the computed amount otherwise. Availability and
// cancellation treat both modes identically.
func PriceSnapshot(rateCentsPerHour *int64, r timerange.Range) *int64 {
	if rateCentsPerHour == nil {
		return nil
	}
	p := PriceCents(*rateCentsPerHour, r)
	return &p
}
