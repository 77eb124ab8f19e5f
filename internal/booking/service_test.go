package booking

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotpark/parking-slot-backend/internal/slot"
)

// memRepo is an in-memory Repository. Create holds the lock across the
// overlap scan and the append, mirroring the atomic reject-or-insert the
// database's exclusion constraint provides.
type memRepo struct {
	mu       sync.Mutex
	nextID   int
	bookings map[string]*Booking
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: make(map[string]*Booking)}
}

func occupies(s Status) bool {
	return s == StatusPending || s == StatusConfirmed
}

func (r *memRepo) Create(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.bookings {
		if other.SlotID != b.SlotID || !occupies(other.Status) {
			continue
		}
		if b.StartTime.Before(other.EndTime) && other.StartTime.Before(b.EndTime) {
			return ErrSlotConflict
		}
	}

	r.nextID++
	b.ID = fmt.Sprintf("booking-%d", r.nextID)
	stored := *b
	r.bookings[b.ID] = &stored
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *memRepo) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Booking
	for _, b := range r.bookings {
		if filter.RenterID != "" && b.RenterID != filter.RenterID {
			continue
		}
		if filter.SlotID != "" && b.SlotID != filter.SlotID {
			continue
		}
		if filter.SlotOwnerID != "" && b.SlotOwnerID != filter.SlotOwnerID {
			continue
		}
		if filter.Status != "" && string(b.Status) != filter.Status {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id string, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if b.Status != from {
		return ErrWrongState
	}
	b.Status = to
	return nil
}

func (r *memRepo) HasOverlap(_ context.Context, slotID string, start, end time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if b.SlotID != slotID || !occupies(b.Status) {
			continue
		}
		if b.StartTime.Before(end) && start.Before(b.EndTime) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) CountActiveForSlot(_ context.Context, slotID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, b := range r.bookings {
		if b.SlotID == slotID && occupies(b.Status) {
			count++
		}
	}
	return count, nil
}

// blindRepo hides every existing booking from the advisory check, forcing
// Create to rely on the storage-level constraint alone. This is the lost
// race: another insert lands between the check and the write.
type blindRepo struct {
	*memRepo
}

func (r *blindRepo) HasOverlap(context.Context, string, time.Time, time.Time) (bool, error) {
	return false, nil
}

// hookRepo runs a callback right before its first status write, opening
// the window between a service's state check and the write landing.
type hookRepo struct {
	*memRepo
	beforeUpdate func()
}

func (r *hookRepo) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	if r.beforeUpdate != nil {
		hook := r.beforeUpdate
		r.beforeUpdate = nil
		hook()
	}
	return r.memRepo.UpdateStatus(ctx, id, from, to)
}

type fakeCatalog struct {
	mu    sync.Mutex
	slots map[string]*slot.Slot
}

func newFakeCatalog(slots ...*slot.Slot) *fakeCatalog {
	c := &fakeCatalog{slots: make(map[string]*slot.Slot)}
	for _, s := range slots {
		c.slots[s.ID] = s
	}
	return c
}

func (c *fakeCatalog) GetByID(_ context.Context, id string) (*slot.Slot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[id]
	if !ok {
		return nil, slot.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (c *fakeCatalog) setRate(id string, rate *int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[id].RateCentsPerHour = rate
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func rate(cents int64) *int64 { return &cents }

func activeSlot(id, ownerID string, rateCents *int64) *slot.Slot {
	return &slot.Slot{
		ID:               id,
		OwnerID:          ownerID,
		Number:           "B2-17",
		Category:         "standard",
		RateCentsPerHour: rateCents,
		Status:           slot.StatusActive,
	}
}

func newTestService(repo Repository, catalog SlotCatalog) Service {
	return NewService(repo, catalog, CancelPolicy{Grace: DefaultCancelGrace}, fixedClock)
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	req := func(slotID string, startOffset, endOffset time.Duration) CreateRequest {
		return CreateRequest{
			RenterID: "renter",
			SlotID:   slotID,
			Start:    testNow.Add(startOffset),
			End:      testNow.Add(endOffset),
		}
	}

	t.Run("pending booking with price snapshot", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo, newFakeCatalog(activeSlot("s1", "owner", rate(5000))))

		b, err := svc.Create(ctx, req("s1", time.Hour, 3*time.Hour))
		require.NoError(t, err)

		assert.NotEmpty(t, b.ID)
		assert.Equal(t, StatusPending, b.Status)
		require.NotNil(t, b.PriceCents)
		assert.Equal(t, int64(10000), *b.PriceCents)
		assert.False(t, b.QuoteRequired())
	})

	t.Run("quote-required slot leaves price unset", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo, newFakeCatalog(activeSlot("s1", "owner", nil)))

		b, err := svc.Create(ctx, req("s1", time.Hour, 3*time.Hour))
		require.NoError(t, err)

		assert.Nil(t, b.PriceCents)
		assert.True(t, b.QuoteRequired())
	})

	t.Run("start in the past", func(t *testing.T) {
		svc := newTestService(newMemRepo(), newFakeCatalog(activeSlot("s1", "owner", rate(5000))))

		_, err := svc.Create(ctx, req("s1", -time.Minute, time.Hour))
		assert.ErrorIs(t, err, ErrPastBooking)
	})

	t.Run("end not after start", func(t *testing.T) {
		svc := newTestService(newMemRepo(), newFakeCatalog(activeSlot("s1", "owner", rate(5000))))

		_, err := svc.Create(ctx, req("s1", 2*time.Hour, 2*time.Hour))
		assert.ErrorIs(t, err, ErrInvalidRange)

		_, err = svc.Create(ctx, req("s1", 3*time.Hour, 2*time.Hour))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("unknown slot", func(t *testing.T) {
		svc := newTestService(newMemRepo(), newFakeCatalog())

		_, err := svc.Create(ctx, req("missing", time.Hour, 2*time.Hour))
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})

	t.Run("inactive slot", func(t *testing.T) {
		s := activeSlot("s1", "owner", rate(5000))
		s.Status = slot.StatusInactive
		svc := newTestService(newMemRepo(), newFakeCatalog(s))

		_, err := svc.Create(ctx, req("s1", time.Hour, 2*time.Hour))
		assert.ErrorIs(t, err, ErrSlotInactive)
	})

	t.Run("overlapping range rejected", func(t *testing.T) {
		svc := newTestService(newMemRepo(), newFakeCatalog(activeSlot("s1", "owner", rate(5000))))

		_, err := svc.Create(ctx, req("s1", time.Hour, 3*time.Hour))
		require.NoError(t, err)

		// Starts inside the existing booking.
		_, err = svc.Create(ctx, req("s1", 2*time.Hour, 4*time.Hour))
		assert.ErrorIs(t, err, ErrSlotConflict)

		// Ends inside the existing booking.
		_, err = svc.Create(ctx, req("s1", 30*time.Minute, 90*time.Minute))
		assert.ErrorIs(t, err, ErrSlotConflict)

		// Fully contains the existing booking.
		_, err = svc.Create(ctx, req("s1", 30*time.Minute, 5*time.Hour))
		assert.ErrorIs(t, err, ErrSlotConflict)
	})

	t.Run("back-to-back bookings both succeed", func(t *testing.T) {
		svc := newTestService(newMemRepo(), newFakeCatalog(activeSlot("s1", "owner", rate(5000))))

		_, err := svc.Create(ctx, req("s1", time.Hour, 3*time.Hour))
		require.NoError(t, err)

		// New booking starts exactly when the first ends. Half-open
		// ranges do not touch.
		_, err = svc.Create(ctx, req("s1", 3*time.Hour, 5*time.Hour))
		assert.NoError(t, err)

		_, err = svc.Create(ctx, req("s1", 30*time.Minute, time.Hour))
		assert.NoError(t, err)
	})

	t.Run("cancelled booking frees the range", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo, newFakeCatalog(activeSlot("s1", "owner", rate(5000))))

		b, err := svc.Create(ctx, req("s1", time.Hour, 3*time.Hour))
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, b.ID, "renter")
		require.NoError(t, err)

		_, err = svc.Create(ctx, req("s1", time.Hour, 3*time.Hour))
		assert.NoError(t, err)
	})

	t.Run("different slots do not conflict", func(t *testing.T) {
		svc := newTestService(newMemRepo(), newFakeCatalog(
			activeSlot("s1", "owner", rate(5000)),
			activeSlot("s2", "owner", rate(5000)),
		))

		_, err := svc.Create(ctx, req("s1", time.Hour, 3*time.Hour))
		require.NoError(t, err)

		_, err = svc.Create(ctx, req("s2", time.Hour, 3*time.Hour))
		assert.NoError(t, err)
	})

	t.Run("lost race still surfaces a conflict", func(t *testing.T) {
		// The advisory check sees nothing, so only the storage
		// constraint stands between the two inserts.
		repo := &blindRepo{newMemRepo()}
		svc := newTestService(repo, newFakeCatalog(activeSlot("s1", "owner", rate(5000))))

		_, err := svc.Create(ctx, req("s1", time.Hour, 3*time.Hour))
		require.NoError(t, err)

		_, err = svc.Create(ctx, req("s1", 2*time.Hour, 4*time.Hour))
		assert.ErrorIs(t, err, ErrSlotConflict)
	})

	t.Run("price is frozen at creation", func(t *testing.T) {
		repo := newMemRepo()
		catalog := newFakeCatalog(activeSlot("s1", "owner", rate(5000)))
		svc := newTestService(repo, catalog)

		b, err := svc.Create(ctx, req("s1", time.Hour, 3*time.Hour))
		require.NoError(t, err)

		catalog.setRate("s1", rate(9000))

		stored, err := repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.PriceCents)
		assert.Equal(t, int64(10000), *stored.PriceCents)
	})

	t.Run("note is trimmed and optional", func(t *testing.T) {
		svc := newTestService(newMemRepo(), newFakeCatalog(activeSlot("s1", "owner", rate(5000))))

		r := req("s1", time.Hour, 2*time.Hour)
		r.Note = "  near elevator  "
		b, err := svc.Create(ctx, r)
		require.NoError(t, err)
		require.NotNil(t, b.Note)
		assert.Equal(t, "near elevator", *b.Note)

		r2 := req("s1", 2*time.Hour, 3*time.Hour)
		r2.Note = "   "
		b2, err := svc.Create(ctx, r2)
		require.NoError(t, err)
		assert.Nil(t, b2.Note)
	})
}

func TestConfirmBooking(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (Service, *Booking) {
		t.Helper()
		repo := newMemRepo()
		svc := newTestService(repo, newFakeCatalog(activeSlot("s1", "owner", rate(5000))))
		b, err := svc.Create(ctx, CreateRequest{
			RenterID: "renter",
			SlotID:   "s1",
			Start:    testNow.Add(time.Hour),
			End:      testNow.Add(3 * time.Hour),
		})
		require.NoError(t, err)
		return svc, b
	}

	t.Run("slot owner confirms a pending booking", func(t *testing.T) {
		svc, b := setup(t)

		confirmed, err := svc.Confirm(ctx, b.ID, "owner")
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, confirmed.Status)
	})

	t.Run("renter cannot confirm", func(t *testing.T) {
		svc, b := setup(t)

		_, err := svc.Confirm(ctx, b.ID, "renter")
		assert.ErrorIs(t, err, ErrNotSlotOwner)
	})

	t.Run("confirm is not idempotent", func(t *testing.T) {
		svc, b := setup(t)

		_, err := svc.Confirm(ctx, b.ID, "owner")
		require.NoError(t, err)

		_, err = svc.Confirm(ctx, b.ID, "owner")
		assert.ErrorIs(t, err, ErrWrongState)
	})

	t.Run("cancelled booking cannot be confirmed", func(t *testing.T) {
		svc, b := setup(t)

		_, err := svc.Cancel(ctx, b.ID, "renter")
		require.NoError(t, err)

		_, err = svc.Confirm(ctx, b.ID, "owner")
		assert.ErrorIs(t, err, ErrWrongState)
	})

	t.Run("unknown booking", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.Confirm(ctx, "missing", "owner")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()

	repo := newMemRepo()
	svc := newTestService(repo, newFakeCatalog(activeSlot("s1", "owner", rate(5000))))

	create := func(t *testing.T, startOffset, endOffset time.Duration) *Booking {
		t.Helper()
		// Seed directly so past start times are reachable.
		b := &Booking{
			SlotID:    "s1",
			RenterID:  "renter",
			StartTime: testNow.Add(startOffset),
			EndTime:   testNow.Add(endOffset),
			Status:    StatusConfirmed,
		}
		require.NoError(t, repo.Create(ctx, b))
		return b
	}

	t.Run("renter cancels within the grace window", func(t *testing.T) {
		b := create(t, -30*time.Minute, 2*time.Hour)

		cancelled, err := svc.Cancel(ctx, b.ID, "renter")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
	})

	t.Run("too late once the grace window closes", func(t *testing.T) {
		b := create(t, -2*time.Hour, 4*time.Hour)

		_, err := svc.Cancel(ctx, b.ID, "renter")
		assert.ErrorIs(t, err, ErrTooLateToCancel)
	})

	t.Run("second cancel is rejected", func(t *testing.T) {
		b := create(t, 4*time.Hour, 5*time.Hour)

		_, err := svc.Cancel(ctx, b.ID, "renter")
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, b.ID, "renter")
		assert.ErrorIs(t, err, ErrAlreadyFinalized)
	})

	t.Run("slot owner cannot cancel", func(t *testing.T) {
		b := create(t, 6*time.Hour, 7*time.Hour)

		_, err := svc.Cancel(ctx, b.ID, "owner")
		assert.ErrorIs(t, err, ErrNotRenter)
	})

	t.Run("completed booking cannot be cancelled", func(t *testing.T) {
		b := create(t, -26*time.Hour, -25*time.Hour)

		_, err := svc.Cancel(ctx, b.ID, "renter")
		assert.ErrorIs(t, err, ErrAlreadyFinalized)
	})
}

// TestStatusTransitionRaces interleaves a second transition between a
// service method's state check and its status write. The compare-and-set
// in the repository must keep the first write from being overwritten.
func TestStatusTransitionRaces(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*hookRepo, Service, *Booking) {
		t.Helper()
		repo := &hookRepo{memRepo: newMemRepo()}
		svc := newTestService(repo, newFakeCatalog(activeSlot("s1", "owner", rate(5000))))
		b, err := svc.Create(ctx, CreateRequest{
			RenterID: "renter",
			SlotID:   "s1",
			Start:    testNow.Add(time.Hour),
			End:      testNow.Add(3 * time.Hour),
		})
		require.NoError(t, err)
		return repo, svc, b
	}

	t.Run("confirm cannot resurrect a cancelled booking", func(t *testing.T) {
		repo, svc, b := setup(t)

		repo.beforeUpdate = func() {
			_, err := svc.Cancel(ctx, b.ID, "renter")
			require.NoError(t, err)
		}

		_, err := svc.Confirm(ctx, b.ID, "owner")
		assert.ErrorIs(t, err, ErrWrongState)

		stored, err := repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, stored.Status)
	})

	t.Run("cancel survives a concurrent confirm", func(t *testing.T) {
		repo, svc, b := setup(t)

		// The booking flips from pending to confirmed mid-cancel, which
		// is still a cancellable state. The cancel re-evaluates and lands.
		repo.beforeUpdate = func() {
			_, err := svc.Confirm(ctx, b.ID, "owner")
			require.NoError(t, err)
		}

		cancelled, err := svc.Cancel(ctx, b.ID, "renter")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)

		stored, err := repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, stored.Status)
	})

	t.Run("racing cancels do not both succeed", func(t *testing.T) {
		repo, svc, b := setup(t)

		repo.beforeUpdate = func() {
			_, err := svc.Cancel(ctx, b.ID, "renter")
			require.NoError(t, err)
		}

		_, err := svc.Cancel(ctx, b.ID, "renter")
		assert.ErrorIs(t, err, ErrAlreadyFinalized)
	})
}

func TestGetBookingAccess(t *testing.T) {
	ctx := context.Background()

	repo := newMemRepo()
	svc := newTestService(repo, newFakeCatalog(activeSlot("s1", "owner", rate(5000))))

	b := &Booking{
		SlotID:      "s1",
		SlotOwnerID: "owner",
		RenterID:    "renter",
		StartTime:   testNow.Add(time.Hour),
		EndTime:     testNow.Add(2 * time.Hour),
		Status:      StatusPending,
	}
	require.NoError(t, repo.Create(ctx, b))

	for _, actor := range []string{"renter", "owner"} {
		got, err := svc.GetByID(ctx, b.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
	}

	_, err := svc.GetByID(ctx, b.ID, "stranger")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

// TestConcurrentCreates hammers one slot from many goroutines and checks
// the invariant the whole system exists for: the accepted set is pairwise
// non-overlapping, and every loser saw a conflict.
func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()

	repo := newMemRepo()
	svc := newTestService(repo, newFakeCatalog(activeSlot("s1", "owner", rate(5000))))

	const workers = 64
	rng := rand.New(rand.NewSource(42))

	type attempt struct {
		start, end time.Time
	}
	attempts := make([]attempt, workers)
	for i := range attempts {
		startOffset := time.Duration(rng.Intn(24)) * time.Hour
		length := time.Duration(1+rng.Intn(4)) * time.Hour
		start := testNow.Add(time.Hour + startOffset)
		attempts[i] = attempt{start: start, end: start.Add(length)}
	}

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, CreateRequest{
				RenterID: fmt.Sprintf("renter-%d", i),
				SlotID:   "s1",
				Start:    attempts[i].start,
				End:      attempts[i].end,
			})
		}(i)
	}
	wg.Wait()

	accepted, _, err := repo.List(ctx, Filter{SlotID: "s1"})
	require.NoError(t, err)
	require.NotEmpty(t, accepted)

	for i := 0; i < len(accepted); i++ {
		for j := i + 1; j < len(accepted); j++ {
			a, b := accepted[i], accepted[j]
			overlap := a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime)
			assert.Falsef(t, overlap, "bookings %s and %s overlap", a.ID, b.ID)
		}
	}

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrSlotConflict)
		}
	}
	assert.Equal(t, len(accepted), succeeded)
}
