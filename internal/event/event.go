// Package event defines the domain events emitted by the booking lifecycle
// after every successful mutation, and the sinks that consume them (cache
// invalidation, broker publication).
package event

import (
	"context"
	"log"
	"time"
)

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingCompleted = "booking.completed"
	TypeBookingCancelled = "booking.cancelled"
)

// BookingEvent describes one booking mutation. It carries enough information
// for consumers to invalidate caches or notify users without querying the
// primary database.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	RoomID     string    `json:"room_id"`
	RoomName   string    `json:"room_name"`
	UserEmail  string    `json:"user_email"`
	UserName   string    `json:"user_name"`
	Date       string    `json:"date"` // YYYY-MM-DD
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink consumes booking events. Implementations must be safe for concurrent
// use; publishing is best-effort and must never block a request indefinitely.
type Sink interface {
	Publish(ctx context.Context, e BookingEvent) error
}

// Sinks fans an event out to every sink. Failures are logged and swallowed so
// one broken consumer cannot take the others down.
type Sinks []Sink

func (s Sinks) Publish(ctx context.Context, e BookingEvent) error {
	for _, sink := range s {
		if err := sink.Publish(ctx, e); err != nil {
			log.Printf("event sink failed for %s %s: %v", e.Type, e.BookingID, err)
		}
	}
	return nil
}
