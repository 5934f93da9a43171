package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomhive/meeting-room-backend/internal/event"
	"github.com/roomhive/meeting-room-backend/internal/room"
)

// fakeRepo is an in-memory Repository. CreateIfFree serializes on the mutex,
// mirroring the row lock the pgx implementation takes on the room.
type fakeRepo struct {
	mu       sync.Mutex
	bookings []*Booking
	nextID   int
}

func (r *fakeRepo) CreateIfFree(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var existing []*Booking
	for _, e := range r.bookings {
		if e.RoomID == b.RoomID && e.Date.Equal(b.Date) {
			existing = append(existing, e)
		}
	}
	if HasConflict(existing, b.StartTime, b.EndTime) {
		return ErrTimeSlotUnavailable
	}

	r.nextID++
	b.ID = fmt.Sprintf("booking-%d", r.nextID)
	b.CreatedAt = time.Now().UTC()
	r.bookings = append(r.bookings, b)
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.ID == id {
			copied := *b
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) ListActiveForRoomDate(ctx context.Context, roomID string, date time.Time) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Booking
	for _, b := range r.bookings {
		if b.RoomID == roomID && b.Date.Equal(date) && b.Status == StatusActive {
			copied := *b
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeRepo) ListActiveForUser(ctx context.Context, email string, f Filter) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Booking
	for _, b := range r.bookings {
		if b.UserEmail != email || b.Status != StatusActive {
			continue
		}
		if f.Date != nil && !b.Date.Equal(*f.Date) {
			continue
		}
		if f.RoomID != "" && b.RoomID != f.RoomID {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.bookings {
		if e.ID == b.ID {
			if e.Status != StatusActive {
				return ErrNotActive
			}
			e.Status = b.Status
			e.CompletedAt = b.CompletedAt
			return nil
		}
	}
	return ErrNotActive
}

type fakeRoomService struct {
	rooms map[string]*room.Room
}

func (s *fakeRoomService) GetByID(ctx context.Context, id string) (*room.Room, error) {
	if rm, ok := s.rooms[id]; ok {
		return rm, nil
	}
	return nil, room.ErrNotFound
}

func (s *fakeRoomService) List(ctx context.Context, onlyAvailable bool) ([]*room.Room, error) {
	var out []*room.Room
	for _, rm := range s.rooms {
		if onlyAvailable && !rm.Available {
			continue
		}
		out = append(out, rm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeRoomService) Create(ctx context.Context, req room.CreateRequest) (*room.Room, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeRoomService) Update(ctx context.Context, id string, req room.UpdateRequest) (*room.Room, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeRoomService) Delete(ctx context.Context, id string) error {
	return errors.New("not implemented")
}

// memCache counts hits so cache behavior is observable from tests.
type memCache struct {
	mu           sync.Mutex
	availability map[string]*Availability
	userLists    map[string][]*Booking
	availHits    int
	listHits     int
}

func newMemCache() *memCache {
	return &memCache{
		availability: make(map[string]*Availability),
		userLists:    make(map[string][]*Booking),
	}
}

func (c *memCache) GetAvailability(ctx context.Context, roomID string, date time.Time) (*Availability, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.availability[roomID+date.Format("2006-01-02")]
	if ok {
		c.availHits++
	}
	return a, ok
}

func (c *memCache) SetAvailability(ctx context.Context, a *Availability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.availability[a.RoomID+a.Date.Format("2006-01-02")] = a
}

func (c *memCache) GetUserBookings(ctx context.Context, email string) ([]*Booking, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.userLists[email]
	if ok {
		c.listHits++
	}
	return items, ok
}

func (c *memCache) SetUserBookings(ctx context.Context, email string, items []*Booking) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userLists[email] = items
}

type captureSink struct {
	mu     sync.Mutex
	events []event.BookingEvent
}

func (s *captureSink) Publish(ctx context.Context, e event.BookingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	svc   Service
	repo  *fakeRepo
	cache *memCache
	sink  *captureSink
}

// testNow is "today 08:00"; every test slot on testDate is in the future.
var (
	testNow  = time.Date(2026, 2, 8, 8, 0, 0, 0, time.UTC)
	testDate = time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	window, err := ParseWindow("09:00", "18:00")
	require.NoError(t, err)
	return newFixtureWithWindow(t, window)
}

func newFixtureWithWindow(t *testing.T, window Window) *fixture {
	t.Helper()

	rooms := &fakeRoomService{rooms: map[string]*room.Room{
		"room-a": {ID: "room-a", Name: "Atlas", Capacity: 8, Available: true},
		"room-b": {ID: "room-b", Name: "Borealis", Capacity: 4, Available: true},
	}}

	f := &fixture{
		repo:  &fakeRepo{},
		cache: newMemCache(),
		sink:  &captureSink{},
	}

	svc := NewService(f.repo, rooms, window, f.cache, f.sink).(*service)
	svc.now = func() time.Time { return testNow }
	f.svc = svc
	return f
}

func createReq(roomID string, h, m, duration int) CreateRequest {
	return CreateRequest{
		RoomID:          roomID,
		StartTime:       at(h, m),
		DurationMinutes: duration,
		UserEmail:       "alice@example.com",
		UserName:        "Alice",
	}
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)

		b, err := f.svc.Create(ctx, createReq("room-a", 10, 0, 60))
		require.NoError(t, err)

		assert.NotEmpty(t, b.ID)
		assert.Equal(t, "room-a", b.RoomID)
		assert.Equal(t, "Atlas", b.RoomName)
		assert.Equal(t, StatusActive, b.Status)
		assert.Equal(t, testDate, b.Date)
		assert.Equal(t, at(11, 0), b.EndTime)
		assert.Nil(t, b.CompletedAt)

		require.Len(t, f.sink.events, 1)
		assert.Equal(t, event.TypeBookingCreated, f.sink.events[0].Type)
		assert.Equal(t, "2026-02-08", f.sink.events[0].Date)
	})

	t.Run("unknown room", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ctx, createReq("room-x", 10, 0, 60))
		assert.ErrorIs(t, err, ErrRoomNotFound)
		assert.Empty(t, f.sink.events)
	})

	t.Run("non-positive duration", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ctx, createReq("room-a", 10, 0, 0))
		assert.ErrorIs(t, err, ErrInvalidTimeSlot)

		_, err = f.svc.Create(ctx, createReq("room-a", 10, 0, -30))
		assert.ErrorIs(t, err, ErrInvalidTimeSlot)
	})

	t.Run("past start time", func(t *testing.T) {
		f := newFixture(t)

		// 07:00 is before the fixed clock at 08:00.
		_, err := f.svc.Create(ctx, createReq("room-a", 7, 0, 30))
		assert.ErrorIs(t, err, ErrPastBooking)
	})

	t.Run("duration crossing midnight", func(t *testing.T) {
		f := newFixture(t)

		// 25 hours from 10:00 ends at 11:00 the next day; the wall-clock end
		// minute alone would look like it sits inside the window.
		_, err := f.svc.Create(ctx, createReq("room-a", 10, 0, 25*60))
		assert.ErrorIs(t, err, ErrInvalidTimeSlot)

		// Same with the window disabled: the interval would escape conflict
		// checks on the next date, so it is still rejected.
		open := newFixtureWithWindow(t, Window{})
		_, err = open.svc.Create(ctx, createReq("room-a", 10, 0, 25*60))
		assert.ErrorIs(t, err, ErrInvalidTimeSlot)
	})

	t.Run("business hours", func(t *testing.T) {
		f := newFixture(t)

		// Ends exactly at closing: allowed.
		_, err := f.svc.Create(ctx, createReq("room-a", 17, 30, 30))
		assert.NoError(t, err)

		// Runs past closing.
		_, err = f.svc.Create(ctx, createReq("room-b", 17, 30, 60))
		assert.ErrorIs(t, err, ErrOutsideBusinessWindow)

		// Starts before opening.
		_, err = f.svc.Create(ctx, createReq("room-b", 8, 30, 60))
		assert.ErrorIs(t, err, ErrOutsideBusinessWindow)
	})

	t.Run("overlapping slot rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ctx, createReq("room-a", 10, 0, 60))
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, createReq("room-a", 10, 30, 60))
		assert.ErrorIs(t, err, ErrTimeSlotUnavailable)

		// Same slot in a different room is fine.
		_, err = f.svc.Create(ctx, createReq("room-b", 10, 30, 60))
		assert.NoError(t, err)

		// Back to back in the same room is fine.
		_, err = f.svc.Create(ctx, createReq("room-a", 11, 0, 60))
		assert.NoError(t, err)
	})

	t.Run("concurrent creates admit exactly one", func(t *testing.T) {
		f := newFixture(t)

		const attempts = 8
		errs := make(chan error, attempts)

		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.Create(ctx, createReq("room-a", 14, 0, 60))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var ok, conflict int
		for err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrTimeSlotUnavailable):
				conflict++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}

		assert.Equal(t, 1, ok)
		assert.Equal(t, attempts-1, conflict)
	})
}

// TestRandomizedCreatesNeverOverlap throws random slots at one room and
// checks the accepted set pairwise: whatever subset survives the conflict
// check, no two active bookings may intersect.
func TestRandomizedCreatesNeverOverlap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		// Starts on a 15-minute grid inside 09:00-18:00, durations 15-120m.
		startMin := 9*60 + 15*rng.Intn(33)
		duration := 15 * (1 + rng.Intn(8))

		req := createReq("room-a", startMin/60, startMin%60, duration)
		_, err := f.svc.Create(ctx, req)
		if err != nil && !errors.Is(err, ErrTimeSlotUnavailable) &&
			!errors.Is(err, ErrOutsideBusinessWindow) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	accepted, err := f.repo.ListActiveForRoomDate(ctx, "room-a", testDate)
	require.NoError(t, err)
	require.NotEmpty(t, accepted)

	for i := 0; i < len(accepted); i++ {
		for j := i + 1; j < len(accepted); j++ {
			a, b := accepted[i], accepted[j]
			assert.False(t, Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime),
				"bookings %s and %s overlap", a.ID, b.ID)
		}
	}
}

func TestBookingTransitions(t *testing.T) {
	ctx := context.Background()
	owner := Requester{Email: "alice@example.com", Name: "Alice"}
	stranger := Requester{Email: "bob@example.com", Name: "Bob"}
	admin := Requester{Email: "admin@example.com", Name: "Admin", IsAdmin: true}

	t.Run("complete stamps completed_at", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.svc.Create(ctx, createReq("room-a", 10, 0, 60))
		require.NoError(t, err)

		done, err := f.svc.Complete(ctx, b.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, done.Status)
		require.NotNil(t, done.CompletedAt)
		assert.Equal(t, testNow, *done.CompletedAt)

		assert.Equal(t, []string{event.TypeBookingCreated, event.TypeBookingCompleted}, f.sink.types())
	})

	t.Run("cancel leaves completed_at empty", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.svc.Create(ctx, createReq("room-a", 10, 0, 60))
		require.NoError(t, err)

		cancelled, err := f.svc.Cancel(ctx, b.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Nil(t, cancelled.CompletedAt)
	})

	t.Run("only the owner or an admin may transition", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.svc.Create(ctx, createReq("room-a", 10, 0, 60))
		require.NoError(t, err)

		_, err = f.svc.Complete(ctx, b.ID, stranger)
		assert.ErrorIs(t, err, ErrNotOwner)

		_, err = f.svc.Cancel(ctx, b.ID, admin)
		assert.NoError(t, err)
	})

	t.Run("terminal states reject further transitions", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.svc.Create(ctx, createReq("room-a", 10, 0, 60))
		require.NoError(t, err)

		_, err = f.svc.Complete(ctx, b.ID, owner)
		require.NoError(t, err)

		_, err = f.svc.Complete(ctx, b.ID, owner)
		assert.ErrorIs(t, err, ErrNotActive)
		_, err = f.svc.Cancel(ctx, b.ID, owner)
		assert.ErrorIs(t, err, ErrNotActive)
	})

	t.Run("cancelling frees the slot", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.svc.Create(ctx, createReq("room-a", 10, 0, 60))
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, b.ID, owner)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, createReq("room-a", 10, 0, 60))
		assert.NoError(t, err)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Complete(ctx, "nope", owner)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("get enforces ownership", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.svc.Create(ctx, createReq("room-a", 10, 0, 60))
		require.NoError(t, err)

		_, err = f.svc.GetByID(ctx, b.ID, stranger)
		assert.ErrorIs(t, err, ErrNotOwner)

		got, err := f.svc.GetByID(ctx, b.ID, admin)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
	})
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("lists only active bookings sorted by start", func(t *testing.T) {
		f := newFixture(t)

		late, err := f.svc.Create(ctx, createReq("room-a", 15, 0, 60))
		require.NoError(t, err)
		early, err := f.svc.Create(ctx, createReq("room-a", 9, 0, 60))
		require.NoError(t, err)

		cancelled, err := f.svc.Create(ctx, createReq("room-a", 12, 0, 60))
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, cancelled.ID, Requester{Email: "alice@example.com"})
		require.NoError(t, err)

		a, err := f.svc.Availability(ctx, "room-a", testDate)
		require.NoError(t, err)

		assert.Equal(t, "Atlas", a.RoomName)
		assert.Equal(t, 8, a.Capacity)
		require.Len(t, a.BookedSlots, 2)
		assert.Equal(t, early.ID, a.BookedSlots[0].BookingID)
		assert.Equal(t, late.ID, a.BookedSlots[1].BookingID)
	})

	t.Run("unknown room", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Availability(ctx, "room-x", testDate)
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("second read is served from cache", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Availability(ctx, "room-a", testDate)
		require.NoError(t, err)
		assert.Equal(t, 0, f.cache.availHits)

		_, err = f.svc.Availability(ctx, "room-a", testDate)
		require.NoError(t, err)
		assert.Equal(t, 1, f.cache.availHits)
	})

	t.Run("all rooms", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ctx, createReq("room-b", 10, 0, 60))
		require.NoError(t, err)

		all, err := f.svc.AllAvailabilities(ctx, testDate)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Atlas", all[0].RoomName)
		assert.Empty(t, all[0].BookedSlots)
		assert.Equal(t, "Borealis", all[1].RoomName)
		assert.Len(t, all[1].BookedSlots, 1)
	})
}

func TestListMine(t *testing.T) {
	ctx := context.Background()

	t.Run("filters by date and room", func(t *testing.T) {
		f := newFixture(t)

		inA, err := f.svc.Create(ctx, createReq("room-a", 10, 0, 60))
		require.NoError(t, err)
		inB, err := f.svc.Create(ctx, createReq("room-b", 10, 0, 60))
		require.NoError(t, err)

		all, err := f.svc.ListMine(ctx, "alice@example.com", Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		onlyA, err := f.svc.ListMine(ctx, "alice@example.com", Filter{RoomID: "room-a"})
		require.NoError(t, err)
		require.Len(t, onlyA, 1)
		assert.Equal(t, inA.ID, onlyA[0].ID)

		otherDay := testDate.AddDate(0, 0, 1)
		none, err := f.svc.ListMine(ctx, "alice@example.com", Filter{Date: &otherDay})
		require.NoError(t, err)
		assert.Empty(t, none)

		sameDay, err := f.svc.ListMine(ctx, "alice@example.com", Filter{Date: &testDate, RoomID: "room-b"})
		require.NoError(t, err)
		require.Len(t, sameDay, 1)
		assert.Equal(t, inB.ID, sameDay[0].ID)
	})

	t.Run("only the unfiltered list is cached", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ctx, createReq("room-a", 10, 0, 60))
		require.NoError(t, err)

		_, err = f.svc.ListMine(ctx, "alice@example.com", Filter{})
		require.NoError(t, err)
		_, err = f.svc.ListMine(ctx, "alice@example.com", Filter{})
		require.NoError(t, err)
		assert.Equal(t, 1, f.cache.listHits)

		_, err = f.svc.ListMine(ctx, "alice@example.com", Filter{RoomID: "room-a"})
		require.NoError(t, err)
		assert.Equal(t, 1, f.cache.listHits, "filtered lookups must bypass the cache")
	})
}
