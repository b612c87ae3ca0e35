// Command seed fills the database with the demo dataset: cities,
// operators, bus types, routes, buses and a week of schedules.  Safe to
// run repeatedly.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/swiftbus/bus-booking-api/internal/config"
	"github.com/swiftbus/bus-booking-api/internal/database"
	"github.com/swiftbus/bus-booking-api/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := seed.Run(ctx, db); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Println("seeding completed")
}
