package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/activity"
	"agri-broker/broker-portal/broker-portal-backend/internal/bootstrap"
	"agri-broker/broker-portal/broker-portal-backend/internal/config"
	"agri-broker/broker-portal/broker-portal-backend/internal/trades"
	"agri-broker/broker-portal/broker-portal-backend/pkg/database"
)

// The worker expires lapsed trades on a cron schedule. Expiry entries reach
// dashboards through the activity stream, not the API's websocket hub.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := bootstrap.Logger(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := bootstrap.Database(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	publisher := bootstrap.Publisher(cfg.Kafka)
	defer bootstrap.CloseAll(logger, publisher)

	recorder := activity.NewService(activity.NewRepository(db), nil, publisher, logger.Named("activity"))
	sweeper := trades.NewSweeper(trades.NewRepository(db), recorder, logger.Named("expiry"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// catch up on anything that lapsed while the worker was down
	if n, err := sweeper.Sweep(ctx); err != nil {
		logger.Error("Initial expiry sweep failed", zap.Error(err))
	} else {
		logger.Info("Initial expiry sweep finished", zap.Int("expired", n))
	}

	if err := sweeper.Start(ctx, cfg.Workers.ExpirySchedule); err != nil {
		logger.Fatal("Failed to start expiry sweeper", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")

	cancel()
	sweeper.Stop()
	logger.Info("Workers stopped")
}
