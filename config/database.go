package config

import "time"

// MongoConfig contains MongoDB configuration. Sessions and invoices are
// persisted in the same database.
type MongoConfig struct {
	URI      string `env:"URI"      envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"invoicedb"`

	// ConnectTimeout bounds the initial connect + ping during startup.
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}
