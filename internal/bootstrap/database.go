package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ledgerline/invoice-api/config"
	mongoadapter "github.com/ledgerline/invoice-api/internal/adapters/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoHandle bundles the connected client with the application database.
type MongoHandle struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*MongoHandle, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo URI is required")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		if derr := client.Disconnect(ctx); derr != nil && logger != nil {
			logger.ErrorContext(ctx, "disconnect mongo after failed ping", "error", derr)
		}
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "connected to mongo", "database", cfg.Database)
	}

	return &MongoHandle{
		Client:   client,
		Database: client.Database(cfg.Database),
	}, nil
}

// Close disconnects the underlying client.
func (h *MongoHandle) Close(ctx context.Context) error {
	if h == nil || h.Client == nil {
		return nil
	}
	return h.Client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the adapters rely on. Runs at startup
// so duplicate-key and range-delete behavior never depends on manual setup.
func EnsureIndexes(ctx context.Context, handle *MongoHandle) error {
	if handle == nil || handle.Database == nil {
		return errors.New("mongo handle is required")
	}

	if err := mongoadapter.NewSessionStore(handle.Database).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure session indexes: %w", err)
	}
	if err := mongoadapter.NewInvoiceRepo(handle.Database).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure invoice indexes: %w", err)
	}
	return nil
}
