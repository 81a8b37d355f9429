// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the service configuration, read from X402BAY_* environment
// variables.
type Config struct {
	// Addr is the listen address.
	Addr string `envconfig:"ADDR" default:":8080"`

	// Store selects the storage backend: "postgres" or "memory".
	Store string `envconfig:"STORE" default:"postgres"`

	// DatabaseURL is the Postgres DSN. Required for the postgres backend.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// UploadsDir is the directory holding published file content.
	UploadsDir string `envconfig:"UPLOADS_DIR" default:"uploads"`

	// FacilitatorURL is the payment facilitator endpoint.
	FacilitatorURL string `envconfig:"FACILITATOR_URL" default:"https://x402.org/facilitator"`

	// FacilitatorAuth is an optional Authorization header value for the
	// facilitator (e.g. "Bearer api-key").
	FacilitatorAuth string `envconfig:"FACILITATOR_AUTH"`

	// VerifyTimeout bounds facilitator proof verification.
	VerifyTimeout time.Duration `envconfig:"VERIFY_TIMEOUT" default:"5s"`

	// SettleTimeout bounds facilitator settlement, which may wait on a
	// chain confirmation.
	SettleTimeout time.Duration `envconfig:"SETTLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// LogLevel is the slog level: debug, info, warn, or error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("x402bay", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: X402BAY_DATABASE_URL is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store)
	}
	if c.FacilitatorURL == "" {
		return fmt.Errorf("config: facilitator URL must not be empty")
	}
	if c.VerifyTimeout <= 0 || c.SettleTimeout <= 0 {
		return fmt.Errorf("config: timeouts must be positive")
	}
	return nil
}
