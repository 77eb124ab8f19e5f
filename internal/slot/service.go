package slot

import (
	"context"
	"strings"
)

// ActiveBookingCounter reports how many live (pending or confirmed)
// bookings reference a slot. Implemented by the booking repository;
// declared here so the slot package does not depend on booking.
type ActiveBookingCounter interface {
	CountActiveForSlot(ctx context.Context, slotID string) (int, error)
}

type CreateRequest struct {
	OwnerID          string
	Number           string
	Category         string
	RateCentsPerHour *int64
}

// RateUpdate wraps the new rate so that "switch to quote-required"
// (CentsPerHour nil) is distinguishable from "leave the rate alone"
// (UpdateRequest.Rate nil).
type RateUpdate struct {
	CentsPerHour *int64
}

type UpdateRequest struct {
	Number   *string
	Category *string
	Status   *string
	Rate     *RateUpdate
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Slot, error)
	GetByID(ctx context.Context, id string) (*Slot, error)
	List(ctx context.Context, filter Filter) ([]*Slot, int, error)
	Update(ctx context.Context, id string, req UpdateRequest, actorID string) (*Slot, error)

	// Editable returns the number of active bookings currently blocking
	// rate/category edits on the slot. Zero means the slot is editable.
	Editable(ctx context.Context, id string) (int, error)

	SetPhoto(ctx context.Context, id string, actorID string, photoID string) error
}

type service struct {
	repo     Repository
	bookings ActiveBookingCounter
}

func NewService(repo Repository, bookings ActiveBookingCounter) Service {
	return &service{
		repo:     repo,
		bookings: bookings,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Slot, error) {
	if strings.TrimSpace(req.Number) == "" {
		return nil, ErrEmptyNumber
	}
	if req.RateCentsPerHour != nil && *req.RateCentsPerHour <= 0 {
		return nil, ErrInvalidRate
	}

	sl := &Slot{
		OwnerID:          req.OwnerID,
		Number:           strings.TrimSpace(req.Number),
		Category:         strings.TrimSpace(req.Category),
		RateCentsPerHour: req.RateCentsPerHour,
		Status:           StatusActive,
	}

	if err := s.repo.Create(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Slot, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Slot, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest, actorID string) (*Slot, error) {
	sl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if sl.OwnerID != actorID {
		return nil, ErrNotOwner
	}

	// Rate and category define the terms a renter agreed to, so they are
	// frozen while any pending/confirmed booking references the slot.
	if req.Rate != nil || req.Category != nil {
		count, err := s.bookings.CountActiveForSlot(ctx, id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, &ActiveBookingsError{Count: count}
		}
	}

	if req.Number != nil {
		if strings.TrimSpace(*req.Number) == "" {
			return nil, ErrEmptyNumber
		}
		sl.Number = strings.TrimSpace(*req.Number)
	}
	if req.Category != nil {
		sl.Category = strings.TrimSpace(*req.Category)
	}
	if req.Rate != nil {
		if req.Rate.CentsPerHour != nil && *req.Rate.CentsPerHour <= 0 {
			return nil, ErrInvalidRate
		}
		sl.RateCentsPerHour = req.Rate.CentsPerHour
	}
	if req.Status != nil {
		st := Status(*req.Status)
		if st != StatusActive && st != StatusInactive {
			return nil, ErrInvalidStatus
		}
		sl.Status = st
	}

	if err := s.repo.Update(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

func (s *service) Editable(ctx context.Context, id string) (int, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return 0, err
	}
	return s.bookings.CountActiveForSlot(ctx, id)
}

func (s *service) SetPhoto(ctx context.Context, id string, actorID string, photoID string) error {
	sl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sl.OwnerID != actorID {
		return ErrNotOwner
	}
	return s.repo.SetPhotoID(ctx, id, &photoID)
}
