// Package server provides configuration helpers that define runtime
// defaults, sanitization, and rate-limiting parameters for the relay.
package server

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix namespaces every configuration variable, e.g. RELAY_PORT.
const envPrefix = "relay"

// Config holds the server configuration settings, including transport
// hardening controls. All fields are loaded from the environment with the
// defaults below.
type Config struct {
	// Port is the listen address, e.g. ":8080".
	Port string `envconfig:"PORT" default:":8080"`

	// AllowedOrigins lists origins permitted to open WebSocket connections.
	// "*" allows all origins, which is the default: the relay itself imposes
	// no cross-origin policy.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`

	// MaxMessageSize caps the size of a single inbound frame in bytes.
	MaxMessageSize int64 `envconfig:"MAX_MESSAGE_SIZE" default:"4096"`

	// RateLimitBurst and RateLimitRefill parameterize the per-connection
	// token bucket: up to Burst frames, refilled over Refill.
	RateLimitBurst  int           `envconfig:"RATE_LIMIT_BURST" default:"20"`
	RateLimitRefill time.Duration `envconfig:"RATE_LIMIT_REFILL" default:"1s"`

	// SendBuffer is the per-client outbound queue depth. A client whose
	// queue is full has further frames dropped rather than blocking the
	// event loop.
	SendBuffer int `envconfig:"SEND_BUFFER" default:"256"`

	// ShutdownTimeout bounds how long graceful shutdown waits for client
	// goroutines to drain.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoadConfig reads the configuration from RELAY_* environment variables,
// falling back to defaults for anything unset, and sanitizes the result.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("server: failed to load config: %w", err)
	}
	cfg.sanitize()
	return &cfg, nil
}

// DefaultConfig returns the configuration the relay runs with when no
// environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Port:            ":8080",
		AllowedOrigins:  []string{"*"},
		MaxMessageSize:  4096,
		RateLimitBurst:  20,
		RateLimitRefill: time.Second,
		SendBuffer:      256,
		ShutdownTimeout: 10 * time.Second,
	}
}

// sanitize replaces zero or nonsense values with defaults so a partially
// broken environment never produces an unusable server.
func (c *Config) sanitize() {
	def := DefaultConfig()
	if c.Port == "" {
		c.Port = def.Port
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = def.AllowedOrigins
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = def.RateLimitBurst
	}
	if c.RateLimitRefill <= 0 {
		c.RateLimitRefill = def.RateLimitRefill
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = def.SendBuffer
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
}
