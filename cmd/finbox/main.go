package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"finbox/internal/api"
	"finbox/internal/api/handlers"
	"finbox/internal/llm"
	"finbox/internal/service"
	"finbox/internal/storage"
	"finbox/pkg/auth"
	"finbox/pkg/config"
	"finbox/pkg/logger"

	"go.uber.org/zap"
)

// @title Finbox API
// @version 1.0
// @description Personal finance backend: receipt scanning, desktop companion credentials and a finance assistant.

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Desktop companion credential: "Bearer " followed by the token.

// @securityDefinitions.apikey SessionAuth
// @in cookie
// @name finbox_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting finbox",
		zap.String("env", cfg.App.Env),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("llm", cfg.LLM.Provider),
	)
	if cfg.UsesDevSecrets() {
		appLogger.Warn("Using built-in development signing secrets; set TOKEN_SECRET and JWT_SECRET_KEY")
	}

	ctx := context.Background()

	// Storage is opened on first use and closed on shutdown
	stores := storage.NewProvider(cfg, appLogger)
	store, err := stores.Store(ctx)
	if err != nil {
		appLogger.Fatal("Failed to open storage", zap.Error(err))
	}

	provider, closeProvider, err := llm.FromConfig(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM provider", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)
	signer := auth.NewCredentialSigner(cfg.Token.Secret)

	// Initialize services
	authService := service.NewAuthService(store.Identities(), jwtManager, appLogger)
	userService := service.NewUserService(store, appLogger)
	tokenService := service.NewTokenService(userService, signer, appLogger)
	receiptService := service.NewReceiptService(provider, cfg.Receipt.MaxBytes, cfg.LLM.Timeout, appLogger)
	chatService := service.NewChatService(provider, cfg.LLM.Timeout, appLogger)
	seedService := service.NewSeedService(store, appLogger)

	// Initialize handlers
	h := &api.Handlers{
		Auth:    handlers.NewAuthHandler(authService, userService, cfg.IsProduction(), appLogger),
		Token:   handlers.NewTokenHandler(tokenService, appLogger),
		Receipt: handlers.NewReceiptHandler(receiptService, tokenService, appLogger),
		Chat:    handlers.NewChatHandler(chatService, appLogger),
		Seed:    handlers.NewSeedHandler(seedService, appLogger),
	}

	app := api.SetupRouter(h, api.Options{
		MaxReceiptBytes: receiptService.MaxBytes(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		EnableSeed:      !cfg.IsProduction(),
		AccessLog:       true,
	}, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
	if err := closeProvider(); err != nil {
		appLogger.Error("LLM provider close error", zap.Error(err))
	}
	if err := stores.Close(); err != nil {
		appLogger.Error("Storage close error", zap.Error(err))
	}
}
