package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal(":8080", cfg.Port)
	req.Equal([]string{"*"}, cfg.AllowedOrigins)
	req.Equal(int64(4096), cfg.MaxMessageSize)
	req.Equal(20, cfg.RateLimitBurst)
	req.Equal(time.Second, cfg.RateLimitRefill)
	req.Equal(256, cfg.SendBuffer)
	req.Equal(10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	req := require.New(t)

	t.Setenv("RELAY_PORT", ":9090")
	t.Setenv("RELAY_ALLOWED_ORIGINS", "http://localhost:3000,https://chat.example.com")
	t.Setenv("RELAY_MAX_MESSAGE_SIZE", "1024")
	t.Setenv("RELAY_RATE_LIMIT_BURST", "5")
	t.Setenv("RELAY_RATE_LIMIT_REFILL", "2s")
	t.Setenv("RELAY_SHUTDOWN_TIMEOUT", "30s")

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal(":9090", cfg.Port)
	req.Equal([]string{"http://localhost:3000", "https://chat.example.com"}, cfg.AllowedOrigins)
	req.Equal(int64(1024), cfg.MaxMessageSize)
	req.Equal(5, cfg.RateLimitBurst)
	req.Equal(2*time.Second, cfg.RateLimitRefill)
	req.Equal(30*time.Second, cfg.ShutdownTimeout)
}

func TestSanitizeRestoresDefaults(t *testing.T) {
	req := require.New(t)

	cfg := &Config{
		Port:            "",
		MaxMessageSize:  -1,
		RateLimitBurst:  0,
		RateLimitRefill: -time.Second,
		SendBuffer:      0,
		ShutdownTimeout: 0,
	}
	cfg.sanitize()

	def := DefaultConfig()
	req.Equal(def.Port, cfg.Port)
	req.Equal(def.AllowedOrigins, cfg.AllowedOrigins)
	req.Equal(def.MaxMessageSize, cfg.MaxMessageSize)
	req.Equal(def.RateLimitBurst, cfg.RateLimitBurst)
	req.Equal(def.RateLimitRefill, cfg.RateLimitRefill)
	req.Equal(def.SendBuffer, cfg.SendBuffer)
	req.Equal(def.ShutdownTimeout, cfg.ShutdownTimeout)
}
