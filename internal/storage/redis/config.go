package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// SessionTTL is a key expiry backstop. The garbage collector deletes sessions by creation time.
	SessionTTL time.Duration

	// MaxUpdateRetries bounds how often UpdateSession retries after a write conflict
	MaxUpdateRetries int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:              "redis://localhost:6379",
		PoolSize:         10,
		MinIdleConns:     2,
		SessionTTL:       24 * time.Hour,
		MaxUpdateRetries: 10,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxUpdateRetries <= 0 {
		c.MaxUpdateRetries = DefaultConfig().MaxUpdateRetries
	}
	return c
}
