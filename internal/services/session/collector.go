package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/clock"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage"
)

var (
	ErrInvalidTTL      = errors.New("session TTL must be positive")
	ErrInvalidInterval = errors.New("collector interval must be positive")
)

// Collector periodically deletes sessions older than the TTL
type Collector struct {
	storage  storage.Storage
	clock    clock.Clock
	interval time.Duration
	ttl      time.Duration
	logger   *slog.Logger
}

// NewCollector creates a Collector. Non-positive TTL or interval is refused.
func NewCollector(
	storage storage.Storage,
	clock clock.Clock,
	interval time.Duration,
	ttl time.Duration,
	logger *slog.Logger,
) (*Collector, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	return &Collector{
		storage:  storage,
		clock:    clock,
		interval: interval,
		ttl:      ttl,
		logger:   logger.With(slog.String("component", "session_gc")),
	}, nil
}

// Sweep deletes every session created before now minus TTL
func (c *Collector) Sweep(ctx context.Context) (int, error) {
	cutoff := c.clock.Now().Add(-c.ttl)
	deleted, err := c.storage.DeleteSessionsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		c.logger.Info("expired sessions deleted",
			slog.Int("count", deleted),
			slog.Time("cutoff", cutoff),
		)
	}
	return deleted, nil
}

// Run sweeps once per interval until ctx is cancelled. Sweep errors are logged and the loop continues.
func (c *Collector) Run(ctx context.Context) {
	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("session collector started",
		slog.Duration("interval", c.interval),
		slog.Duration("ttl", c.ttl),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := c.Sweep(ctx); err != nil {
				c.logger.Error("session sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
