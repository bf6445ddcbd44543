// Manual trigger for the subscription expiry sweep.
//
// The sweep also runs as a periodic background task inside the main
// application. This script exists for one-off runs, for example after a
// bulk import of historical subscriptions or when the server was down
// past several sweep intervals.
//
// Usage: go run scripts/expire_subscriptions.go

package main

import (
	"log"

	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/repository"
	"mentorhub_backend/internal/service"
	"mentorhub_backend/pkg/database"
	"mentorhub_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	subscriptions := service.NewSubscriptionService(
		repository.NewSubscriptionRepository(db),
		cfg.Booking.ReserveRetries,
	)

	log.Println("running subscription expiry sweep...")
	moved, err := subscriptions.SweepExpired()
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
	log.Printf("done, %d subscriptions marked expired", moved)
}
