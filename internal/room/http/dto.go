package http

import (
	"time"

	"github.com/roomhive/meeting-room-backend/internal/room"
)

// ListRoomsRequest defines query parameters for listing rooms.
type ListRoomsRequest struct {
	Available bool `form:"available"`
}

type RoomResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRoomResponse(rm *room.Room) RoomResponse {
	return RoomResponse{
		ID:        rm.ID,
		Name:      rm.Name,
		Capacity:  rm.Capacity,
		Available: rm.Available,
		CreatedAt: rm.CreatedAt,
	}
}

type CreateRoomRequest struct {
	Name      string `json:"name" binding:"required"`
	Capacity  int    `json:"capacity" binding:"required,min=1"`
	Available *bool  `json:"available"`
}

type UpdateRoomRequest struct {
	Name      *string `json:"name"`
	Capacity  *int    `json:"capacity" binding:"omitempty,min=1"`
	Available *bool   `json:"available"`
}
