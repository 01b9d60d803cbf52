package mocks

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/clock"
)

// Ensure FakeClock implements Clock
var _ clock.Clock = (*clockwork.FakeClock)(nil)

// NewMockClock creates a fake clock set to the given time.
// Advance moves it forward and fires any tickers that are due.
func NewMockClock(t time.Time) *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(t)
}
