// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load() layers defaults, an optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// JWTSecret signs/verifies bearer tokens on the ingestion endpoints.
	JWTSecret string `koanf:"jwt_secret"`

	// DatabaseURL selects the Postgres store when set; empty keeps the
	// in-memory store.
	DatabaseURL string `koanf:"database_url"`

	// AllowedOrigin is the extension origin granted CORS access.
	AllowedOrigin string `koanf:"allowed_origin"`

	// PendingTTLSeconds bounds how long an unmatched submission stays pending.
	PendingTTLSeconds int `koanf:"pending_ttl_seconds"`

	// SweepIntervalSeconds sets the registry sweep period.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`

	// TxRetryAttempts bounds retries on transient transaction conflicts.
	TxRetryAttempts int `koanf:"tx_retry_attempts"`

	// TxRetryBaseMS is the backoff base; attempt n waits base*n.
	TxRetryBaseMS int `koanf:"tx_retry_base_ms"`

	// TxTimeoutMS caps a single transaction attempt.
	TxTimeoutMS int `koanf:"tx_timeout_ms"`

	// BusCapacity bounds the in-process correlation event bus.
	BusCapacity int `koanf:"bus_capacity"`

	// DedupeSize sets the size of the ingestion idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ForwardBatchSize caps events per offline-sync batch.
	ForwardBatchSize int `koanf:"forward_batch_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		AllowedOrigin:        "",
		PendingTTLSeconds:    300,
		SweepIntervalSeconds: 60,
		TxRetryAttempts:      3,
		TxRetryBaseMS:        50,
		TxTimeoutMS:          2000,
		BusCapacity:          1024,
		DedupeSize:           50_000,
		ForwardBatchSize:     50,
	}
}
