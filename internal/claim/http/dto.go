package http

import (
	"time"

	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/claim"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/pkg/request"
)

type SlotResponse struct {
	RoomID    string    `json:"room_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func NewSlotResponse(s claim.Slot) SlotResponse {
	return SlotResponse{
		RoomID:    s.RoomID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
	}
}

type SlotAvailabilityResponse struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

type AvailabilityResponse struct {
	RoomID string                     `json:"room_id"`
	Slots  []SlotAvailabilityResponse `json:"slots"`
}

func NewAvailabilityResponse(roomID string, slots []claim.SlotAvailability) AvailabilityResponse {
	items := make([]SlotAvailabilityResponse, len(slots))
	for i, s := range slots {
		items[i] = SlotAvailabilityResponse{
			StartTime: s.Slot.StartTime,
			EndTime:   s.Slot.EndTime,
			Status:    string(s.Status),
		}
	}
	return AvailabilityResponse{RoomID: roomID, Slots: items}
}

type ClaimResponse struct {
	ID         string     `json:"id"`
	RoomID     string     `json:"room_id"`
	OwnerID    string     `json:"owner_id"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    time.Time  `json:"end_time"`
	Status     string     `json:"status"`
	HoldExpiry *time.Time `json:"hold_expiry,omitempty"`
	Agenda     string     `json:"agenda,omitempty"`
	PartySize  int        `json:"party_size,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func NewClaimResponse(c *claim.Claim) ClaimResponse {
	return ClaimResponse{
		ID:         c.ID,
		RoomID:     c.RoomID,
		OwnerID:    c.OwnerID,
		StartTime:  c.StartTime,
		EndTime:    c.EndTime,
		Status:     string(c.Status),
		HoldExpiry: c.HoldExpiry,
		Agenda:     c.Agenda,
		PartySize:  c.PartySize,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

type CreateHoldBody struct {
	RoomID    string    `json:"room_id" binding:"required,uuid"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

// Validate performs custom validation for CreateHoldBody.
func (b *CreateHoldBody) Validate() error {
	if !b.EndTime.After(b.StartTime) {
		return claim.ErrInvalidInterval
	}
	return nil
}

type ConfirmBody struct {
	Agenda    string `json:"agenda" binding:"required"`
	PartySize int    `json:"party_size" binding:"required,min=1"`
}

// ListClaimsRequest defines query parameters for listing claims.
type ListClaimsRequest struct {
	request.ListParams
	RoomID string `form:"room_id" binding:"omitempty,uuid"`
	Status string `form:"status" binding:"omitempty,oneof=held confirmed cancelled expired"`
}
