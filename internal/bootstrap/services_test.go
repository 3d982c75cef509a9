package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ledgerline/invoice-api/config"
)

// newTestMongoHandle builds a handle without performing any IO; the driver
// connects lazily, and these tests never run an operation.
func newTestMongoHandle(t *testing.T) *MongoHandle {
	t.Helper()
	client, err := mongo.Connect(options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return &MongoHandle{Client: client, Database: client.Database("invoice_test")}
}

func TestNewServices_BuildsOnlyEnabledModes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handle := newTestMongoHandle(t)

	httpOnly := &config.AppConfig{Services: "http"}
	services := NewServices(&ServiceDeps{Config: httpOnly, Mongo: handle, Logger: logger})
	assert.NotNil(t, services.Invoices)
	assert.Nil(t, services.Sweeper)

	sweeperOnly := &config.AppConfig{Services: "sweeper"}
	services = NewServices(&ServiceDeps{Config: sweeperOnly, Mongo: handle, Logger: logger})
	assert.Nil(t, services.Invoices)
	assert.NotNil(t, services.Sweeper)
}
