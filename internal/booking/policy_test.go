package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCancelPolicyAuthorize(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := CancelPolicy{Grace: time.Hour}

	mkBooking := func(status Status, startOffset, endOffset time.Duration) *Booking {
		return &Booking{
			ID:        "b1",
			RenterID:  "renter",
			StartTime: now.Add(startOffset),
			EndTime:   now.Add(endOffset),
			Status:    status,
		}
	}

	tests := []struct {
		name    string
		booking *Booking
		actorID string
		wantErr error
	}{
		{
			name:    "renter cancels future pending booking",
			booking: mkBooking(StatusPending, 2*time.Hour, 3*time.Hour),
			actorID: "renter",
		},
		{
			name:    "renter cancels future confirmed booking",
			booking: mkBooking(StatusConfirmed, 2*time.Hour, 3*time.Hour),
			actorID: "renter",
		},
		{
			name:    "started 30 minutes ago within one hour grace",
			booking: mkBooking(StatusConfirmed, -30*time.Minute, 2*time.Hour),
			actorID: "renter",
		},
		{
			name:    "started 90 minutes ago is too late",
			booking: mkBooking(StatusConfirmed, -90*time.Minute, 2*time.Hour),
			actorID: "renter",
			wantErr: ErrTooLateToCancel,
		},
		{
			name:    "pending booking past the grace window is also too late",
			booking: mkBooking(StatusPending, -2*time.Hour, 2*time.Hour),
			actorID: "renter",
			wantErr: ErrTooLateToCancel,
		},
		{
			name:    "someone else cannot cancel",
			booking: mkBooking(StatusPending, 2*time.Hour, 3*time.Hour),
			actorID: "stranger",
			wantErr: ErrNotRenter,
		},
		{
			name:    "already cancelled never silently succeeds",
			booking: mkBooking(StatusCancelled, 2*time.Hour, 3*time.Hour),
			actorID: "renter",
			wantErr: ErrAlreadyFinalized,
		},
		{
			name:    "confirmed booking whose end passed reads as completed",
			booking: mkBooking(StatusConfirmed, -3*time.Hour, -time.Hour),
			actorID: "renter",
			wantErr: ErrAlreadyFinalized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Authorize(tt.booking, tt.actorID, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status Status
		end    time.Time
		want   Status
	}{
		{name: "confirmed and finished", status: StatusConfirmed, end: now.Add(-time.Minute), want: StatusCompleted},
		{name: "confirmed ends exactly now", status: StatusConfirmed, end: now, want: StatusCompleted},
		{name: "confirmed still running", status: StatusConfirmed, end: now.Add(time.Minute), want: StatusConfirmed},
		{name: "pending never completes", status: StatusPending, end: now.Add(-time.Hour), want: StatusPending},
		{name: "cancelled stays cancelled", status: StatusCancelled, end: now.Add(-time.Hour), want: StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{Status: tt.status, EndTime: tt.end}
			assert.Equal(t, tt.want, b.EffectiveStatus(now))
		})
	}
}
