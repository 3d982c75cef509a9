package config

// ObservabilityMetricsConfig controls the StatsD metrics sink.
type ObservabilityMetricsConfig struct {
	// Enabled turns on metric emission when a StatsD address is configured.
	Enabled bool `env:"METRICS_ENABLED" envDefault:"false"`

	// StatsdAddress is the host:port of a StatsD-compatible UDP endpoint.
	StatsdAddress string `env:"STATSD_ADDRESS" envDefault:""`
}

// IsEnabled reports whether metrics should be emitted.
func (c ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// ObservabilityConfig groups observability configuration.
type ObservabilityConfig struct {
	Metrics ObservabilityMetricsConfig
}
