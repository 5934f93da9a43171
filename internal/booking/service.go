package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roomhive/meeting-room-backend/internal/event"
	"github.com/roomhive/meeting-room-backend/internal/room"
)

// Window restricts bookings to a daily time window, expressed in minutes from
// midnight. The zero value enforces nothing.
type Window struct {
	StartMinute int
	EndMinute   int
	Enforced    bool
}

// ParseWindow parses "HH:MM" open/close strings into a Window. Both empty
// disables the window.
func ParseWindow(start, end string) (Window, error) {
	if start == "" && end == "" {
		return Window{}, nil
	}

	startMin, err := parseMinuteOfDay(start)
	if err != nil {
		return Window{}, fmt.Errorf("invalid business hours start %q: %w", start, err)
	}
	endMin, err := parseMinuteOfDay(end)
	if err != nil {
		return Window{}, fmt.Errorf("invalid business hours end %q: %w", end, err)
	}
	if endMin <= startMin {
		return Window{}, fmt.Errorf("business hours end %q must be after start %q", end, start)
	}

	return Window{StartMinute: startMin, EndMinute: endMin, Enforced: true}, nil
}

// Contains reports whether the [start, end) interval lies fully inside the
// window. An interval ending exactly at the closing minute is allowed. The
// end minute is computed from the real elapsed duration, so an interval
// running past midnight exceeds the closing minute instead of wrapping.
func (w Window) Contains(start, end time.Time) bool {
	if !w.Enforced {
		return true
	}
	startMin := start.Hour()*60 + start.Minute()
	endMin := startMin + int(end.Sub(start)/time.Minute)
	return startMin >= w.StartMinute && endMin <= w.EndMinute
}

func parseMinuteOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Cache is the read-through cache collaborator. Implementations must treat
// every miss or failure as a miss; the service falls back to the store.
type Cache interface {
	GetAvailability(ctx context.Context, roomID string, date time.Time) (*Availability, bool)
	SetAvailability(ctx context.Context, a *Availability)
	GetUserBookings(ctx context.Context, email string) ([]*Booking, bool)
	SetUserBookings(ctx context.Context, email string, items []*Booking)
}

// Requester identifies the authenticated caller of a booking operation.
type Requester struct {
	Email   string
	Name    string
	IsAdmin bool
}

type CreateRequest struct {
	RoomID          string
	StartTime       time.Time
	DurationMinutes int
	UserEmail       string
	UserName        string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string, requester Requester) (*Booking, error)
	Complete(ctx context.Context, id string, requester Requester) (*Booking, error)
	Cancel(ctx context.Context, id string, requester Requester) (*Booking, error)
	Availability(ctx context.Context, roomID string, date time.Time) (*Availability, error)
	AllAvailabilities(ctx context.Context, date time.Time) ([]*Availability, error)
	ListMine(ctx context.Context, email string, f Filter) ([]*Booking, error)
}

type service struct {
	repo        Repository
	roomService room.Service
	window      Window
	cache       Cache
	events      event.Sink

	now func() time.Time
}

func NewService(repo Repository, roomService room.Service, window Window, cache Cache, events event.Sink) Service {
	return &service{
		repo:        repo,
		roomService: roomService,
		window:      window,
		cache:       cache,
		events:      events,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	rm, err := s.roomService.GetByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidTimeSlot
	}

	start := req.StartTime.UTC()
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)

	if start.Before(s.now()) {
		return nil, ErrPastBooking
	}

	// Bookings are keyed on their start date; an interval may run up to that
	// day's midnight but never into the next day, or the overnight tail would
	// be invisible to conflict checks on the following date.
	if end.After(dateOf(start).AddDate(0, 0, 1)) {
		return nil, ErrInvalidTimeSlot
	}

	if !s.window.Contains(start, end) {
		return nil, ErrOutsideBusinessWindow
	}

	b := &Booking{
		RoomID:          rm.ID,
		RoomName:        rm.Name,
		UserEmail:       req.UserEmail,
		UserName:        req.UserName,
		Date:            dateOf(start),
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: req.DurationMinutes,
		Status:          StatusActive,
	}

	// The repository re-checks the slot under a room lock; the insert only
	// happens if the slot is still free at commit time.
	if err := s.repo.CreateIfFree(ctx, b); err != nil {
		return nil, err
	}

	s.emit(ctx, event.TypeBookingCreated, b)
	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string, requester Requester) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserEmail != requester.Email && !requester.IsAdmin {
		return nil, ErrNotOwner
	}
	return b, nil
}

func (s *service) Complete(ctx context.Context, id string, requester Requester) (*Booking, error) {
	return s.transition(ctx, id, requester, StatusCompleted)
}

func (s *service) Cancel(ctx context.Context, id string, requester Requester) (*Booking, error) {
	return s.transition(ctx, id, requester, StatusCancelled)
}

// transition applies ACTIVE -> COMPLETED or ACTIVE -> CANCELLED. Both target
// states are terminal; no transition fires from a non-ACTIVE booking.
func (s *service) transition(ctx context.Context, id string, requester Requester, target Status) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.UserEmail != requester.Email && !requester.IsAdmin {
		return nil, ErrNotOwner
	}
	if b.Status != StatusActive {
		return nil, ErrNotActive
	}

	b.Status = target
	if target == StatusCompleted {
		now := s.now()
		b.CompletedAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, b); err != nil {
		return nil, err
	}

	eventType := event.TypeBookingCancelled
	if target == StatusCompleted {
		eventType = event.TypeBookingCompleted
	}
	s.emit(ctx, eventType, b)

	return b, nil
}

func (s *service) Availability(ctx context.Context, roomID string, date time.Time) (*Availability, error) {
	day := dateOf(date)

	if s.cache != nil {
		if a, ok := s.cache.GetAvailability(ctx, roomID, day); ok {
			return a, nil
		}
	}

	rm, err := s.roomService.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	bookings, err := s.repo.ListActiveForRoomDate(ctx, roomID, day)
	if err != nil {
		return nil, err
	}

	slots := make([]BookedSlot, 0, len(bookings))
	for _, b := range bookings {
		slots = append(slots, BookedSlot{
			BookingID: b.ID,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			UserName:  b.UserName,
		})
	}

	a := &Availability{
		RoomID:      rm.ID,
		RoomName:    rm.Name,
		Capacity:    rm.Capacity,
		Date:        day,
		BookedSlots: slots,
	}

	if s.cache != nil {
		s.cache.SetAvailability(ctx, a)
	}
	return a, nil
}

func (s *service) AllAvailabilities(ctx context.Context, date time.Time) ([]*Availability, error) {
	rooms, err := s.roomService.List(ctx, false)
	if err != nil {
		return nil, err
	}

	result := make([]*Availability, 0, len(rooms))
	for _, rm := range rooms {
		a, err := s.Availability(ctx, rm.ID, date)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}

func (s *service) ListMine(ctx context.Context, email string, f Filter) ([]*Booking, error) {
	// Only the unfiltered list is cached; filtered lookups go to the store.
	cacheable := s.cache != nil && f.Date == nil && f.RoomID == ""

	if cacheable {
		if items, ok := s.cache.GetUserBookings(ctx, email); ok {
			return items, nil
		}
	}

	if f.Date != nil {
		day := dateOf(*f.Date)
		f.Date = &day
	}

	items, err := s.repo.ListActiveForUser(ctx, email, f)
	if err != nil {
		return nil, err
	}

	if cacheable {
		s.cache.SetUserBookings(ctx, email, items)
	}
	return items, nil
}

func (s *service) emit(ctx context.Context, eventType string, b *Booking) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, event.BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		RoomID:     b.RoomID,
		RoomName:   b.RoomName,
		UserEmail:  b.UserEmail,
		UserName:   b.UserName,
		Date:       b.Date.Format("2006-01-02"),
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		OccurredAt: s.now(),
	})
}

// dateOf truncates a timestamp to its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
