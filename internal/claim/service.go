package claim

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/notify"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/pkg/clock"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/room"
)

// Publisher broadcasts claim change events. Satisfied by notify.Notifier.
type Publisher interface {
	Publish(ctx context.Context, event notify.Event) error
}

// Settings are the reservation-core knobs from config.
type Settings struct {
	HoldTTL          time.Duration
	SlotInterval     time.Duration
	MaxSlotsPerClaim int
	Hours            OperatingHours
}

type CreateHoldRequest struct {
	RoomID         string
	OwnerID        string
	StartTime      time.Time
	EndTime        time.Time
	IdempotencyKey string
}

type ConfirmRequest struct {
	ClaimID   string
	OwnerID   string
	Agenda    string
	PartySize int
}

type Service interface {
	// ListSlots returns the bookable grid for a room today.
	ListSlots(ctx context.Context, roomID string) ([]Slot, error)
	// GetAvailability returns the grid with each slot's free/held/booked status.
	GetAvailability(ctx context.Context, roomID string) ([]SlotAvailability, error)
	// CreateHold provisionally claims [start, end) for HoldTTL.
	CreateHold(ctx context.Context, req CreateHoldRequest) (*Claim, error)
	// Confirm promotes a hold to a permanent booking, re-validating overlap.
	Confirm(ctx context.Context, req ConfirmRequest) (*Claim, error)
	// Cancel releases a held claim or cancels a confirmed one.
	Cancel(ctx context.Context, claimID, ownerID string) error
	List(ctx context.Context, filter Filter) ([]*Claim, int, error)
	// ExpireStaleHolds flips timed-out holds to expired and notifies watchers.
	ExpireStaleHolds(ctx context.Context) (int, error)
}

type service struct {
	repo        Repository
	roomService room.Service
	notifier    Publisher
	clock       clock.Clock
	settings    Settings
}

func NewService(repo Repository, roomService room.Service, notifier Publisher, clk clock.Clock, settings Settings) Service {
	return &service{
		repo:        repo,
		roomService: roomService,
		notifier:    notifier,
		clock:       clk,
		settings:    settings,
	}
}

func (s *service) ListSlots(ctx context.Context, roomID string) ([]Slot, error) {
	if _, err := s.roomService.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return GenerateSlots(roomID, s.clock.Now(), s.settings.Hours, s.settings.SlotInterval), nil
}

func (s *service) GetAvailability(ctx context.Context, roomID string) ([]SlotAvailability, error) {
	now := s.clock.Now()

	slots, err := s.ListSlots(ctx, roomID)
	if err != nil {
		return nil, err
	}

	active, err := s.repo.ListActive(ctx, roomID, now)
	if err != nil {
		return nil, err
	}

	return Project(slots, active, now), nil
}

func (s *service) CreateHold(ctx context.Context, req CreateHoldRequest) (*Claim, error) {
	now := s.clock.Now()

	// Synchronous validation, before any transaction.
	if err := ValidateInterval(req.StartTime, req.EndTime, s.settings.SlotInterval, s.settings.MaxSlotsPerClaim); err != nil {
		return nil, err
	}
	if req.StartTime.Before(now) {
		return nil, ErrStartTimePast
	}
	if !sameDay(req.StartTime, now) {
		return nil, ErrNotToday
	}
	if !s.settings.Hours.Contains(req.StartTime, req.EndTime) {
		return nil, ErrOutsideHours
	}
	if _, err := s.roomService.GetByID(ctx, req.RoomID); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	expiry := now.Add(s.settings.HoldTTL)
	var result *Claim
	var replayed bool
	var released []*Claim

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		// Retried requests with the same key get their original hold back
		// instead of a spurious conflict.
		if req.IdempotencyKey != "" {
			existing, err := s.repo.FindByIdempotencyKey(txCtx, req.OwnerID, req.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.RoomID != req.RoomID ||
					!existing.StartTime.Equal(req.StartTime) ||
					!existing.EndTime.Equal(req.EndTime) {
					return ErrIdempotencyConflict
				}
				result = existing
				replayed = true
				return nil
			}
		}

		// Flip timed-out holds first so the exclusion constraint never
		// blocks an insert on a logically-dead row.
		expired, err := s.repo.ExpireStale(txCtx, req.RoomID, now)
		if err != nil {
			return err
		}
		released = expired

		overlaps, err := s.repo.HasOverlap(txCtx, req.RoomID, req.StartTime, req.EndTime, "", now)
		if err != nil {
			return err
		}
		if overlaps {
			return ErrSlotTaken
		}

		c := &Claim{
			RoomID:         req.RoomID,
			OwnerID:        req.OwnerID,
			StartTime:      req.StartTime,
			EndTime:        req.EndTime,
			Status:         StatusHeld,
			HoldExpiry:     &expiry,
			IdempotencyKey: req.IdempotencyKey,
		}
		if err := s.repo.Create(txCtx, c); err != nil {
			return err
		}

		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range released {
		s.publish(ctx, notify.EventDeleted, c)
	}
	if !replayed {
		s.publish(ctx, notify.EventCreated, result)
	}

	return result, nil
}

func (s *service) Confirm(ctx context.Context, req ConfirmRequest) (*Claim, error) {
	if req.Agenda == "" {
		return nil, ErrAgendaRequired
	}
	if req.PartySize <= 0 {
		return nil, ErrInvalidPartySize
	}

	now := s.clock.Now()
	var result *Claim
	var lapsed *Claim

	// Steps below run as one transaction: the gap between a user picking a
	// slot and submitting the form is exactly the race window, and the
	// second overlap check is only meaningful if it commits atomically
	// with the state transition.
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		c, err := s.repo.GetForUpdate(txCtx, req.ClaimID)
		if err != nil {
			return err
		}
		if c.OwnerID != req.OwnerID {
			return ErrNotFound
		}
		if c.Status != StatusHeld {
			return ErrNotHeld
		}
		if c.HoldExpiry == nil || !c.HoldExpiry.After(now) {
			// The hold lapsed mid-flow. Record the expiry now so the row
			// stops shadowing the interval, then report it after commit.
			if err := s.repo.SetStatus(txCtx, c.ID, StatusExpired); err != nil {
				return err
			}
			c.Status = StatusExpired
			lapsed = c
			return nil
		}

		overlaps, err := s.repo.HasOverlap(txCtx, c.RoomID, c.StartTime, c.EndTime, c.ID, now)
		if err != nil {
			return err
		}
		if overlaps {
			return ErrRaceLost
		}

		if err := s.repo.SetConfirmed(txCtx, c.ID, req.Agenda, req.PartySize); err != nil {
			return err
		}

		c.Status = StatusConfirmed
		c.HoldExpiry = nil
		c.Agenda = req.Agenda
		c.PartySize = req.PartySize
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if lapsed != nil {
		s.publish(ctx, notify.EventDeleted, lapsed)
		return nil, ErrHoldExpired
	}

	s.publish(ctx, notify.EventUpdated, result)
	return result, nil
}

func (s *service) Cancel(ctx context.Context, claimID, ownerID string) error {
	now := s.clock.Now()
	var removed *Claim

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		c, err := s.repo.GetForUpdate(txCtx, claimID)
		if err != nil {
			return err
		}
		if c.OwnerID != ownerID {
			return ErrNotOwner
		}

		switch c.Status {
		case StatusHeld:
			// Explicit abandon: release the hold without waiting for expiry.
			if err := s.repo.SetStatus(txCtx, c.ID, StatusExpired); err != nil {
				return err
			}
			c.Status = StatusExpired
		case StatusConfirmed:
			if !now.Before(c.EndTime) {
				return ErrAlreadyPast
			}
			if err := s.repo.SetStatus(txCtx, c.ID, StatusCancelled); err != nil {
				return err
			}
			c.Status = StatusCancelled
		default:
			// Cancelled and expired claims are terminal.
			return ErrNotFound
		}

		removed = c
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, notify.EventDeleted, removed)
	return nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Claim, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) ExpireStaleHolds(ctx context.Context) (int, error) {
	now := s.clock.Now()

	var expired []*Claim
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		expired, err = s.repo.ExpireStale(txCtx, "", now)
		return err
	})
	if err != nil {
		return 0, err
	}

	for _, c := range expired {
		s.publish(ctx, notify.EventDeleted, c)
	}
	return len(expired), nil
}

// publish broadcasts a change event. Delivery failures are logged, not
// surfaced: watchers reconcile via periodic full refetch anyway.
func (s *service) publish(ctx context.Context, eventType notify.EventType, c *Claim) {
	event := notify.Event{
		Type: eventType,
		Claim: notify.ClaimSnapshot{
			ID:         c.ID,
			RoomID:     c.RoomID,
			OwnerID:    c.OwnerID,
			StartTime:  c.StartTime,
			EndTime:    c.EndTime,
			Status:     string(c.Status),
			HoldExpiry: c.HoldExpiry,
		},
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		log.Printf("failed to publish claim event for %s: %v", c.ID, err)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
