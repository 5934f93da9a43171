package http

import (
	"time"

	"github.com/roomhive/meeting-room-backend/internal/booking"
	"github.com/roomhive/meeting-room-backend/internal/pkg/request"
)

// CreateBookingRequest defines the payload for creating a booking. The end
// time is derived from start time plus duration.
type CreateBookingRequest struct {
	RoomID          string `json:"room_id" binding:"required,uuid"`
	Date            string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime       string `json:"start_time" binding:"required,datetime=15:04"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1"`
}

// ListBookingsRequest defines query parameters for listing the requester's
// bookings.
type ListBookingsRequest struct {
	request.DateQuery
	RoomID string `form:"room_id" binding:"omitempty,uuid"`
}

// AvailabilityQuery binds the required ?date=YYYY-MM-DD parameter for
// availability lookups.
type AvailabilityQuery struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

type RoomTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BookingResponse struct {
	ID              string     `json:"id"`
	Room            RoomTag    `json:"room"`
	UserName        string     `json:"user_name"`
	Date            string     `json:"date"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		Room:            RoomTag{ID: b.RoomID, Name: b.RoomName},
		UserName:        b.UserName,
		Date:            b.Date.Format("2006-01-02"),
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		DurationMinutes: b.DurationMinutes,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
		CompletedAt:     b.CompletedAt,
	}
}

type BookedSlotResponse struct {
	BookingID string    `json:"booking_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	BookedBy  string    `json:"booked_by"`
}

type AvailabilityResponse struct {
	RoomID      string               `json:"room_id"`
	RoomName    string               `json:"room_name"`
	Capacity    int                  `json:"capacity"`
	Date        string               `json:"date"`
	BookedSlots []BookedSlotResponse `json:"booked_slots"`
}

func NewAvailabilityResponse(a *booking.Availability) AvailabilityResponse {
	slots := make([]BookedSlotResponse, 0, len(a.BookedSlots))
	for _, s := range a.BookedSlots {
		slots = append(slots, BookedSlotResponse{
			BookingID: s.BookingID,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			BookedBy:  s.UserName,
		})
	}

	return AvailabilityResponse{
		RoomID:      a.RoomID,
		RoomName:    a.RoomName,
		Capacity:    a.Capacity,
		Date:        a.Date.Format("2006-01-02"),
		BookedSlots: slots,
	}
}
