// Package timerange provides the half-open time interval used by bookings.
package timerange

import (
	"errors"
	"time"
)

var (
	ErrInvalid = errors.New("start time must be before end time")
	ErrInPast  = errors.New("start time must not be in the past")
)

// Range is a half-open interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// New builds a Range without validating it.
func New(start, end time.Time) Range {
	return Range{Start: start, End: end}
}

// Validate checks the interval against the given reference time.
// It returns ErrInvalid if Start >= End, and ErrInPast if Start < now.
func (r Range) Validate(now time.Time) error {
	if !r.Start.Before(r.End) {
		return ErrInvalid
	}
	if r.Start.Before(now) {
		return ErrInPast
	}
	return nil
}

// Overlaps reports whether two half-open intervals share at least one
// instant. A shared endpoint (r.End == other.Start) is not an overlap,
// so back-to-back bookings are legal.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Duration returns End - Start.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Seconds returns the interval length in whole seconds.
// Pricing works on seconds so that fractional hours stay exact.
func (r Range) Seconds() int64 {
	return int64(r.Duration() / time.Second)
}
