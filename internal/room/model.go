package room

import (
	"net/http"
	"time"

	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "room not found")
	ErrEmptyName       = apperror.New(http.StatusBadRequest, "name cannot be empty")
	ErrInvalidCapacity = apperror.New(http.StatusBadRequest, "capacity must be positive")
)

// Room represents a bookable meeting room. Reference data for the
// reservation core; claims only care about its identity.
type Room struct {
	ID            string
	Name          string
	Capacity      int
	HasProjector  bool
	HasWhiteboard bool
	HasVideoConf  bool
	CreatedAt     time.Time
}

// Filter defines parameters for listing rooms.
type Filter struct {
	MinCapacity int
	Page        int
	PageSize    int
}
