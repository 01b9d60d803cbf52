package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock provides time operations that can be mocked for testing.
// In production it is backed by clockwork.NewRealClock(), in tests by a FakeClock.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

// New returns the system clock
func New() Clock {
	return clockwork.NewRealClock()
}
