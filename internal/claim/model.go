package claim

import (
	"net/http"
	"time"

	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "claim not found")
	ErrRoomNotFound        = apperror.New(http.StatusNotFound, "room not found")
	ErrSlotTaken           = apperror.New(http.StatusConflict, "this time slot was just taken, please pick another")
	ErrRaceLost            = apperror.New(http.StatusConflict, "another booking was confirmed for this slot, please pick another")
	ErrNotHeld             = apperror.New(http.StatusConflict, "claim is no longer held")
	ErrHoldExpired         = apperror.New(http.StatusGone, "hold expired, please re-select the slot")
	ErrNotOwner            = apperror.New(http.StatusForbidden, "claim belongs to another user")
	ErrAlreadyPast         = apperror.New(http.StatusBadRequest, "booking has already ended")
	ErrInvalidInterval     = apperror.New(http.StatusBadRequest, "end time must be after start time")
	ErrNotAligned          = apperror.New(http.StatusBadRequest, "times must align to the slot grid")
	ErrTooManySlots        = apperror.New(http.StatusBadRequest, "booking exceeds the maximum number of slots")
	ErrStartTimePast       = apperror.New(http.StatusBadRequest, "cannot book a slot in the past")
	ErrOutsideHours        = apperror.New(http.StatusBadRequest, "booking is outside operating hours")
	ErrInvalidPartySize    = apperror.New(http.StatusBadRequest, "party size must be positive")
	ErrAgendaRequired      = apperror.New(http.StatusBadRequest, "agenda is required")
	ErrNotToday            = apperror.New(http.StatusBadRequest, "bookings are limited to the current day")
	ErrIdempotencyConflict = apperror.New(http.StatusConflict, "idempotency key was already used for a different booking")
)

type Status string

const (
	StatusHeld      Status = "held"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Claim is a request to occupy a contiguous run of slots in a room.
// It starts life as a time-boxed hold and either gets confirmed before
// hold_expiry or lapses. Cancelled and expired claims are terminal.
type Claim struct {
	ID             string
	RoomID         string
	OwnerID        string
	StartTime      time.Time
	EndTime        time.Time
	Status         Status
	HoldExpiry     *time.Time // set while Status == held, nil once confirmed
	Agenda         string
	PartySize      int
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ActiveAt reports whether the claim blocks its interval at the given instant:
// confirmed, or held with an unexpired hold. Expired holds never block.
func (c *Claim) ActiveAt(now time.Time) bool {
	switch c.Status {
	case StatusConfirmed:
		return true
	case StatusHeld:
		return c.HoldExpiry != nil && c.HoldExpiry.After(now)
	default:
		return false
	}
}

// Covers reports whether the claim's interval fully contains [start, end).
func (c *Claim) Covers(start, end time.Time) bool {
	return !c.StartTime.After(start) && !c.EndTime.Before(end)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Adjacent intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ValidateInterval checks that [start, end) aligns to the slot grid (integer
// multiples of interval from the Unix epoch) and spans between 1 and maxSlots
// contiguous slots.
func ValidateInterval(start, end time.Time, interval time.Duration, maxSlots int) error {
	if !end.After(start) {
		return ErrInvalidInterval
	}
	step := int64(interval / time.Second)
	if step <= 0 {
		return ErrInvalidInterval
	}
	if start.Unix()%step != 0 || end.Unix()%step != 0 {
		return ErrNotAligned
	}
	slots := end.Sub(start) / interval
	if slots < 1 {
		return ErrInvalidInterval
	}
	if int(slots) > maxSlots {
		return ErrTooManySlots
	}
	return nil
}

// Filter defines parameters for listing claims.
type Filter struct {
	OwnerID  string
	RoomID   string
	Status   string
	Page     int
	PageSize int
}
