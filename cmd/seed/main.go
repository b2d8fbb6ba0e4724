package main

import (
	"context"
	"log"

	"finbox/internal/service"
	"finbox/internal/storage"
	"finbox/pkg/config"
	"finbox/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()

	appLogger.Info("Starting database seeding...")

	result, err := service.NewSeedService(store, appLogger).SeedTransactions(ctx)
	if err != nil {
		appLogger.Fatal("Failed to seed transactions", zap.Error(err))
	}

	appLogger.Info("Database seeding completed successfully!",
		zap.String("account_id", result.AccountID.String()),
		zap.Int("transactions", result.Transactions),
	)
}
