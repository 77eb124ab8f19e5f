package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotpark/parking-slot-backend/internal/booking"
)

type stubService struct {
	booking.Service
	b *booking.Booking
}

func (s *stubService) GetByID(_ context.Context, _ string, _ string) (*booking.Booking, error) {
	return s.b, nil
}

// The completed status is derived against the handler's injected clock,
// not the wall clock.
func TestGetResolvesStatusAgainstInjectedClock(t *testing.T) {
	gin.SetMode(gin.TestMode)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := &booking.Booking{
		ID:        "3f0c7f8a-1f4c-4b62-9f6e-2d1a8c5b7e90",
		SlotID:    "s1",
		RenterID:  "renter",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    booking.StatusConfirmed,
	}

	serve := func(t *testing.T, clock booking.NowFunc) BookingResponse {
		t.Helper()
		h := NewHandler(&stubService{b: b}, clock)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/v1/bookings/"+b.ID, nil)
		c.Params = gin.Params{{Key: "id", Value: b.ID}}
		c.Set("userID", "renter")

		h.Get(c)
		require.Equal(t, http.StatusOK, w.Code)

		var resp BookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	t.Run("clock before end reads confirmed", func(t *testing.T) {
		resp := serve(t, func() time.Time { return start.Add(30 * time.Minute) })
		assert.Equal(t, string(booking.StatusConfirmed), resp.Status)
	})

	t.Run("clock past end reads completed", func(t *testing.T) {
		resp := serve(t, func() time.Time { return start.Add(2 * time.Hour) })
		assert.Equal(t, string(booking.StatusCompleted), resp.Status)
	})
}
