package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/roomhive/meeting-room-backend/internal/app"
	"github.com/roomhive/meeting-room-backend/internal/booking"
	"github.com/roomhive/meeting-room-backend/internal/cache"
	"github.com/roomhive/meeting-room-backend/internal/config"
	"github.com/roomhive/meeting-room-backend/internal/db"
)

func main() {
	// Listen for interrupt signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	window, err := booking.ParseWindow(cfg.BusinessHoursStart, cfg.BusinessHoursEnd)
	if err != nil {
		log.Fatalf("invalid business hours: %v", err)
	}

	redisClient := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if redisClient != nil {
		defer redisClient.Close()
	}

	container := app.NewContainer(app.Config{
		IsProduction: cfg.IsProduction,
		ProdOrigins:  cfg.ProdOrigins,
		DBPool:       pool,
		JWTSecret:    cfg.JWTSecret,
		JWTTTL:       cfg.JWTAccessTokenTTL,
		BcryptCost:   cfg.BcryptCost,
		Window:       window,
		RedisClient:  redisClient,
		CacheTTL:     cfg.CacheTTL,
		AMQPURL:      cfg.AMQPURL,
	})

	// Bootstrap the admin account when configured.
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := container.UserService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("failed to ensure admin account: %v", err)
		}
	}

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until a shutdown signal is received
	<-ctx.Done()
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
