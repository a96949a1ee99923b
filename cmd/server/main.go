package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/show-seat-booking/internal/config"
	"github.com/iliyamo/show-seat-booking/internal/database"
	"github.com/iliyamo/show-seat-booking/internal/handler"
	"github.com/iliyamo/show-seat-booking/internal/middleware"
	"github.com/iliyamo/show-seat-booking/internal/queue"
	"github.com/iliyamo/show-seat-booking/internal/repository"
	"github.com/iliyamo/show-seat-booking/internal/reservation"
	"github.com/iliyamo/show-seat-booking/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	var store reservation.Store
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		if err := repository.EnsureSchema(context.Background(), db); err != nil {
			log.Fatalf("schema: %v", err)
		}
		store = repository.NewMySQLStore(db, cfg.HoldTTL)
	case config.DriverMemory:
		store = reservation.NewMemoryStore(cfg.HoldTTL)
	}

	// Background sweep returning abandoned holds to availability.
	go reservation.NewReclaimer(store, cfg.ReclaimInterval).Run(context.Background())

	// Booking event consumer; reconnects on its own, never fatal.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	h := handler.NewReservationHandler(store, queue.PublishBookingConfirmed)
	identity := middleware.GuestIdentity(cfg.JWTSecret)
	holdLimiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), config.NewRedisClient())
	router.RegisterRoutes(e, h, identity, holdLimiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s store=%s hold_ttl=%s)", addr, cfg.Env, cfg.StoreDriver, cfg.HoldTTL)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
