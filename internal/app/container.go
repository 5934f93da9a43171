// Package app wires the application dependency graph: repositories, services,
// event sinks and the HTTP router. main and integration tests build a
// Container instead of assembling the pieces by hand.
package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/roomhive/meeting-room-backend/internal/api"
	"github.com/roomhive/meeting-room-backend/internal/auth"
	"github.com/roomhive/meeting-room-backend/internal/booking"
	"github.com/roomhive/meeting-room-backend/internal/cache"
	"github.com/roomhive/meeting-room-backend/internal/event"
	"github.com/roomhive/meeting-room-backend/internal/room"
	"github.com/roomhive/meeting-room-backend/internal/user"
)

// Config carries the resolved runtime settings the container needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	DBPool *pgxpool.Pool

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	// Window restricts bookings to daily business hours. The zero value
	// enforces nothing.
	Window booking.Window

	// RedisClient may be nil; bookings then run without caching.
	RedisClient *redis.Client
	CacheTTL    time.Duration

	// AMQPURL may be empty; booking events are then not published.
	AMQPURL string
}

// Container holds the constructed services and the HTTP router.
type Container struct {
	Router *gin.Engine

	JWTManager     *auth.JWTManager
	UserService    user.Service
	RoomService    room.Service
	BookingService booking.Service
}

// NewContainer builds the full dependency graph from cfg.
func NewContainer(cfg Config) *Container {
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	hasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)

	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, hasher)

	roomRepo := room.NewPgxRepository(cfg.DBPool)
	roomService := room.NewService(roomRepo)

	// Event sinks: cache invalidation runs first so stale entries are gone
	// before any broker consumer reacts to the event.
	var sinks event.Sinks
	var bookingCache booking.Cache
	if cfg.RedisClient != nil {
		redisCache := cache.NewRedisCache(cfg.RedisClient, cfg.CacheTTL)
		bookingCache = redisCache
		sinks = append(sinks, cache.NewInvalidator(redisCache))
	}
	if cfg.AMQPURL != "" {
		sinks = append(sinks, event.NewAMQPPublisher(cfg.AMQPURL))
	}

	var sink event.Sink
	if len(sinks) > 0 {
		sink = sinks
	}

	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, roomService, cfg.Window, bookingCache, sink)

	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		UserService:    userService,
		RoomService:    roomService,
		BookingService: bookingService,
		JWTManager:     jwtManager,
	})

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		UserService:    userService,
		RoomService:    roomService,
		BookingService: bookingService,
	}
}
