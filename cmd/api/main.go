package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/bootstrap"
	"agri-broker/broker-portal/broker-portal-backend/internal/config"
	"agri-broker/broker-portal/broker-portal-backend/internal/server"
	"agri-broker/broker-portal/broker-portal-backend/pkg/database"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
)

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

	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	db, err := bootstrap.Database(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	gateway, err := bootstrap.Gateway(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to build message gateway", zap.Error(err))
	}
	files, err := bootstrap.Files(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to build invoice storage", zap.Error(err))
	}
	seen, err := bootstrap.Dedupe(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to build webhook dedupe store", zap.Error(err))
	}
	publisher := bootstrap.Publisher(cfg.Kafka)

	app := server.New(server.Dependencies{
		DB:        db,
		Notifier:  notify.NewNotifier(gateway, logger.Named("notify"), cfg.Notifier.MessageDelay),
		Files:     files,
		Seen:      seen,
		Publisher: publisher,
		Config:    cfg,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", srv.Addr),
			zap.String("notifier", cfg.Notifier.Provider),
			zap.String("storage", cfg.Storage.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	app.Hub.Close()
	bootstrap.CloseAll(logger, publisher, seen)

	logger.Info("Server exited")
}
