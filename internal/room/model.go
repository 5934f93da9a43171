package room

import (
	"net/http"
	"time"

	"github.com/roomhive/meeting-room-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "ROOM_NOT_FOUND", "room not found")
	ErrDuplicateName   = apperror.New(http.StatusConflict, "ROOM_NAME_DUPLICATE", "room name already exists")
	ErrEmptyName       = apperror.New(http.StatusBadRequest, "INVALID_INPUT", "room name cannot be empty")
	ErrInvalidCapacity = apperror.New(http.StatusBadRequest, "INVALID_INPUT", "room capacity must be positive")
	ErrHasBookings     = apperror.New(http.StatusConflict, "ROOM_IN_USE", "room has bookings and cannot be deleted")
)

// Room represents a bookable meeting room.
type Room struct {
	ID        string // UUID
	Name      string // unique
	Capacity  int
	Available bool
	CreatedAt time.Time
}
