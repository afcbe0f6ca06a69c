package http

import (
	"time"

	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/pkg/request"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/room"
)

type RoomResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Capacity      int       `json:"capacity"`
	HasProjector  bool      `json:"has_projector"`
	HasWhiteboard bool      `json:"has_whiteboard"`
	HasVideoConf  bool      `json:"has_video_conf"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewRoomResponse(r *room.Room) RoomResponse {
	return RoomResponse{
		ID:            r.ID,
		Name:          r.Name,
		Capacity:      r.Capacity,
		HasProjector:  r.HasProjector,
		HasWhiteboard: r.HasWhiteboard,
		HasVideoConf:  r.HasVideoConf,
		CreatedAt:     r.CreatedAt,
	}
}

type CreateRoomBody struct {
	Name          string `json:"name" binding:"required"`
	Capacity      int    `json:"capacity" binding:"required,min=1"`
	HasProjector  bool   `json:"has_projector"`
	HasWhiteboard bool   `json:"has_whiteboard"`
	HasVideoConf  bool   `json:"has_video_conf"`
}

// ListRoomsRequest defines query parameters for listing rooms.
type ListRoomsRequest struct {
	request.ListParams
	MinCapacity int `form:"min_capacity" binding:"omitempty,min=1"`
}
