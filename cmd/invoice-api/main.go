package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ledgerline/invoice-api/config"
	"github.com/ledgerline/invoice-api/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	cfgPtr := &cfg
	if err = bootstrap.ValidateServiceConfig(cfgPtr); err != nil {
		return err
	}

	// Connect to MongoDB
	mongoHandle, err := bootstrap.ConnectMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := mongoHandle.Close(ctx); cerr != nil {
			logger.ErrorContext(ctx, "close mongo failed", "error", cerr)
		}
	}()

	if err = bootstrap.EnsureIndexes(ctx, mongoHandle); err != nil {
		return err
	}

	services := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config: cfgPtr,
		Mongo:  mongoHandle,
		Logger: logger,
	})

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   cfgPtr,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	enabledServices := bootstrap.GetEnabledServices(cfg)
	logger.InfoContext(ctx, "starting invoice-api service",
		"db_name", cfg.Mongo.Database,
		"auth_mode", cfg.Auth.Mode,
		"session_ttl", cfg.Session.TTL,
		"enabled_services", enabledServices)
}
