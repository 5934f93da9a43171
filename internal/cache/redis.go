// Package cache provides the read-through redis cache for room availability
// and per-user booking lists. The booking core signals staleness through
// events; the Invalidator in this package consumes them and evicts exactly
// the keys each event names.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roomhive/meeting-room-backend/internal/booking"
	"github.com/roomhive/meeting-room-backend/internal/event"
)

// NewClient connects to redis and pings it with a short timeout. It returns
// nil when the server is unreachable; callers degrade to uncached reads.
func NewClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unreachable at %s, caching disabled: %v", addr, err)
		return nil
	}
	return client
}

// RedisCache caches availability projections and user booking lists with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) GetAvailability(ctx context.Context, roomID string, date time.Time) (*booking.Availability, bool) {
	var a booking.Availability
	if !c.get(ctx, availabilityKey(roomID, date), &a) {
		return nil, false
	}
	return &a, true
}

func (c *RedisCache) SetAvailability(ctx context.Context, a *booking.Availability) {
	c.set(ctx, availabilityKey(a.RoomID, a.Date), a)
}

func (c *RedisCache) GetUserBookings(ctx context.Context, email string) ([]*booking.Booking, bool) {
	var items []*booking.Booking
	if !c.get(ctx, userBookingsKey(email), &items) {
		return nil, false
	}
	return items, true
}

func (c *RedisCache) SetUserBookings(ctx context.Context, email string, items []*booking.Booking) {
	c.set(ctx, userBookingsKey(email), items)
}

func (c *RedisCache) get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache get %s failed: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("cache decode %s failed: %v", key, err)
		return false
	}
	return true
}

func (c *RedisCache) set(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache encode %s failed: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Printf("cache set %s failed: %v", key, err)
	}
}

// Invalidator evicts the cache entries a booking mutation made stale:
// the room+date availability view and the requester's booking list.
type Invalidator struct {
	cache *RedisCache
}

func NewInvalidator(cache *RedisCache) *Invalidator {
	return &Invalidator{cache: cache}
}

func (i *Invalidator) Publish(ctx context.Context, e event.BookingEvent) error {
	keys := []string{
		fmt.Sprintf("avail:%s:%s", e.RoomID, e.Date),
		userBookingsKey(e.UserEmail),
	}
	if err := i.cache.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache eviction failed: %w", err)
	}
	return nil
}

func availabilityKey(roomID string, date time.Time) string {
	return fmt.Sprintf("avail:%s:%s", roomID, date.Format("2006-01-02"))
}

func userBookingsKey(email string) string {
	return fmt.Sprintf("mybookings:%s", email)
}
