package booking

import (
	"context"
	"strings"
	"time"

	"github.com/slotpark/parking-slot-backend/internal/pkg/timerange"
	"github.com/slotpark/parking-slot-backend/internal/slot"
)

// SlotCatalog is the narrow view of the slot service the ledger needs.
type SlotCatalog interface {
	GetByID(ctx context.Context, id string) (*slot.Slot, error)
}

// NowFunc supplies the clock. It is injected so past-booking and
// grace-period decisions are deterministic under test, and so one
// operation sees a single consistent "now".
type NowFunc func() time.Time

type CreateRequest struct {
	RenterID string
	SlotID   string
	Start    time.Time
	End      time.Time
	Note     string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	Confirm(ctx context.Context, id string, actorID string) (*Booking, error)
	Cancel(ctx context.Context, id string, actorID string) (*Booking, error)
	GetByID(ctx context.Context, id string, actorID string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
}

type service struct {
	repo   Repository
	slots  SlotCatalog
	policy CancelPolicy
	now    NowFunc
}

func NewService(repo Repository, slots SlotCatalog, policy CancelPolicy, now NowFunc) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   repo,
		slots:  slots,
		policy: policy,
		now:    now,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	now := s.now().UTC()

	// 1. Validate the time range against a single "now".
	rng := timerange.New(req.Start, req.End)
	switch err := rng.Validate(now); err {
	case nil:
	case timerange.ErrInvalid:
		return nil, ErrInvalidRange
	case timerange.ErrInPast:
		return nil, ErrPastBooking
	default:
		return nil, err
	}

	// 2. Load the slot.
	sl, err := s.slots.GetByID(ctx, req.SlotID)
	if err != nil {
		if err == slot.ErrNotFound {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if sl.Status != slot.StatusActive {
		return nil, ErrSlotInactive
	}

	// 3. Advisory overlap check. Friendly rejection in the common case,
	// never the sole guarantee: the exclusion constraint in step 5 is.
	hasOverlap, err := s.repo.HasOverlap(ctx, req.SlotID, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	if hasOverlap {
		return nil, ErrSlotConflict
	}

	// 4. Snapshot the price under the slot's current rate mode.
	price := PriceSnapshot(sl.RateCentsPerHour, rng)

	var note *string
	if trimmed := strings.TrimSpace(req.Note); trimmed != "" {
		note = &trimmed
	}

	b := &Booking{
		SlotID:      req.SlotID,
		SlotNumber:  sl.Number,
		SlotOwnerID: sl.OwnerID,
		RenterID:    req.RenterID,
		StartTime:   rng.Start,
		EndTime:     rng.End,
		PriceCents:  price,
		Status:      StatusPending,
		Note:        note,
	}

	// 5. Insert through the storage-level constraint. A lost race comes
	// back from the repository as ErrSlotConflict already.
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *service) Confirm(ctx context.Context, id string, actorID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.SlotOwnerID != actorID {
		return nil, ErrNotSlotOwner
	}
	if b.Status != StatusPending {
		return nil, ErrWrongState
	}

	// Compare-and-set from pending: a cancel that lands between the read
	// above and this write makes the transition miss, not overwrite.
	if err := s.repo.UpdateStatus(ctx, id, StatusPending, StatusConfirmed); err != nil {
		return nil, err
	}
	b.Status = StatusConfirmed
	return b, nil
}

func (s *service) Cancel(ctx context.Context, id string, actorID string) (*Booking, error) {
	// Re-evaluate on a compare-and-set miss: a concurrent confirm moves
	// the booking from pending to confirmed, which is still cancellable,
	// while a concurrent cancel makes Authorize reject. Statuses only
	// move forward, so this settles after at most one retry.
	for {
		b, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := s.policy.Authorize(b, actorID, s.now().UTC()); err != nil {
			return nil, err
		}

		// Cancelling drops the row out of the overlap constraint's WHERE
		// clause, so the write itself can never create a conflict.
		switch err := s.repo.UpdateStatus(ctx, id, b.Status, StatusCancelled); err {
		case nil:
			b.Status = StatusCancelled
			return b, nil
		case ErrWrongState:
			continue
		default:
			return nil, err
		}
	}
}

func (s *service) GetByID(ctx context.Context, id string, actorID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// The renter owns the booking; the slot owner gets read access for
	// contact and approval purposes.
	if b.RenterID != actorID && b.SlotOwnerID != actorID {
		return nil, ErrPermissionDenied
	}
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}
