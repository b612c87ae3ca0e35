package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/swiftbus/bus-booking-api/internal/booking"
	"github.com/swiftbus/bus-booking-api/internal/config"
	"github.com/swiftbus/bus-booking-api/internal/database"
	"github.com/swiftbus/bus-booking-api/internal/handler"
	"github.com/swiftbus/bus-booking-api/internal/middleware"
	"github.com/swiftbus/bus-booking-api/internal/queue"
	"github.com/swiftbus/bus-booking-api/internal/repository"
	"github.com/swiftbus/bus-booking-api/internal/router"
	"github.com/swiftbus/bus-booking-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: rate limiting and response cache disabled")
	}

	// Booking core: MySQL store + RabbitMQ notifier behind the manager.
	store := repository.NewBookingStore(db)
	manager := booking.NewManager(store, service.Emitter{},
		cfg.MaxSeats, cfg.DefaultPayment, cfg.BookingTxTimeout)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	catalog := repository.NewCatalogRepo(db)
	schedules := repository.NewScheduleRepo(db)
	stats := repository.NewStatsRepo(db)
	bookings := repository.NewBookingRepo(db)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	browseH := handler.NewBrowseHandler(catalog, schedules, stats)
	bookingH := handler.NewBookingHandler(manager, bookings)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	router.RegisterPublic(e, browseH, cache)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterBookings(e, bookingH, cfg.JWTSecret)

	// Background consumer drains booking.created into logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
