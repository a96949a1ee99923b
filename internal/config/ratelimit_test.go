package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_REFILL_TOKENS",
		"RATE_LIMIT_REFILL_INTERVAL", "RATE_LIMIT_TTL", "RATE_LIMIT_KEY_STRATEGY",
		"RATE_LIMIT_PREFIX", "RATE_LIMIT_DEBUG",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 10, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Minute, cfg.TTL)
	assert.Equal(t, "guest", cfg.KeyStrategy)
}

func TestLoadRateLimitConfigClampsBadValues(t *testing.T) {
	// A typo or a zero must never yield a bucket that rejects every
	// request.
	t.Setenv("RATE_LIMIT_CAPACITY", "abc")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "nonsense")
	t.Setenv("RATE_LIMIT_TTL", "2s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 10, cfg.Capacity, "malformed capacity falls back to the default")
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, time.Second, cfg.RefillInterval)
	assert.Equal(t, 5*time.Second, cfg.TTL, "TTL floors at five refill intervals")

	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "-3s")
	cfg = LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity, "explicit zero clamps to one token")
	assert.Equal(t, time.Second, cfg.RefillInterval)
}
