package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/app"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/claim"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/config"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/db"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/migrations"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()

	// Apply schema migrations
	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	// Connect Redis for the claim change feed
	rdb, err := db.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	container := app.NewContainer(app.Config{
		IsProduction:     cfg.IsProduction,
		ProdOrigins:      cfg.ProdOrigins,
		DBPool:           pool,
		Redis:            rdb,
		JWTSecret:        cfg.JWTSecret,
		JWTTTL:           cfg.JWTAccessTokenTTL,
		HoldTTL:          cfg.HoldTTL,
		SlotInterval:     cfg.SlotInterval,
		MaxSlotsPerClaim: cfg.MaxSlotsPerClaim,
		SweepInterval:    cfg.SweepInterval,
		Hours: claim.OperatingHours{
			Open:  cfg.OpenTime,
			Close: cfg.CloseTime,
			Days:  cfg.OperatingDays,
		},
	})

	// Background sweep so abandoned holds free their slots promptly
	go container.Sweeper.Run(ctx)

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		log.Printf("server running on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Println("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("server exited gracefully")
}
