package booking

import (
	"net/http"
	"time"

	"github.com/roomhive/meeting-room-backend/internal/pkg/apperror"
)

var (
	ErrNotFound              = apperror.New(http.StatusNotFound, "BOOKING_NOT_FOUND", "booking not found")
	ErrRoomNotFound          = apperror.New(http.StatusNotFound, "ROOM_NOT_FOUND", "room not found")
	ErrInvalidTimeSlot       = apperror.New(http.StatusBadRequest, "INVALID_TIME_SLOT", "booking must start before it ends and stay within one day")
	ErrPastBooking           = apperror.New(http.StatusBadRequest, "PAST_DATE_TIME_BOOKING", "cannot book a past date or time")
	ErrOutsideBusinessWindow = apperror.New(http.StatusBadRequest, "INVALID_BUSINESS_HOURS", "booking is outside business hours")
	ErrTimeSlotUnavailable   = apperror.New(http.StatusConflict, "TIME_SLOT_UNAVAILABLE", "time slot already booked")
	ErrNotActive             = apperror.New(http.StatusConflict, "BOOKING_NOT_ACTIVE", "booking is not active")
	ErrNotOwner              = apperror.New(http.StatusForbidden, "UNAUTHORIZED_BOOKING_ACCESS", "cannot modify another user's booking")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Booking is a reservation of a room for a half-open [StartTime, EndTime)
// interval on a calendar date. Bookings are never deleted; terminal states
// (completed, cancelled) are kept for history.
type Booking struct {
	ID              string // UUID
	RoomID          string
	RoomName        string
	UserEmail       string
	UserName        string
	Date            time.Time // calendar date (midnight UTC)
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	Status          Status
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// Filter narrows a requester's booking list by date and/or room.
type Filter struct {
	Date   *time.Time
	RoomID string
}

// BookedSlot is one occupied interval in an availability view.
type BookedSlot struct {
	BookingID string
	StartTime time.Time
	EndTime   time.Time
	UserName  string
}

// Availability is the read-only projection of a room's ACTIVE bookings on a
// date, ordered by start time.
type Availability struct {
	RoomID      string
	RoomName    string
	Capacity    int
	Date        time.Time
	BookedSlots []BookedSlot
}
