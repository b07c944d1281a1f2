package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/room4-2/lamaison/config"
	"github.com/room4-2/lamaison/logging"
	"github.com/room4-2/lamaison/restaurant"
	"github.com/room4-2/lamaison/server"
	"github.com/room4-2/lamaison/session"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional: without it bookings and sessions live in memory
	redisClient := session.ConnectRedis(ctx, cfg, logger)

	var ledger restaurant.Ledger = restaurant.NewMemoryLedger()
	if redisClient != nil {
		ledger = restaurant.NewRedisLedger(redisClient)
		defer func() { _ = redisClient.Close() }()
	}

	info := restaurant.NewInfo(cfg.RestaurantName, cfg.ClosedDays)
	floor := restaurant.NewFloor(info, cfg.SeatsPerSlot, ledger)

	sessionManager := session.NewManager(cfg, session.Restaurant{
		Name:         info.Name,
		Hours:        info.Hours(),
		Availability: floor,
		Menu:         restaurant.NewMenu(info, nil),
		Booker:       floor,
	}, redisClient, logger)

	// Start cleanup routine
	go sessionManager.StartCleanupRoutine(ctx)

	srv := server.NewServerWebsocket(cfg, sessionManager, logger)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-sigChan
		logger.Info("Received shutdown signal...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", zap.Error(err))
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
	<-stopped

	logger.Info("Server stopped")
}
