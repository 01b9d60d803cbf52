package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"

	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/mocks"
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage/memory"
	"github.com/itsinfi/prompt-with-friends-backend/internal/testutil"
)

// failingStorage fails the first n sweeps
type failingStorage struct {
	*memory.Storage
	failures atomic.Int32
}

func newFailingStorage(inner *memory.Storage, failures int32) *failingStorage {
	f := &failingStorage{Storage: inner}
	f.failures.Store(failures)
	return f
}

func (f *failingStorage) DeleteSessionsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if f.failures.Add(-1) >= 0 {
		return 0, model.ErrPersistence
	}
	return f.Storage.DeleteSessionsOlderThan(ctx, cutoff)
}

type CollectorSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *clockwork.FakeClock
	ctx     context.Context
}

func TestCollectorSuite(t *testing.T) {
	suite.Run(t, new(CollectorSuite))
}

func (s *CollectorSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ctx = context.Background()
}

func (s *CollectorSuite) save(code string, age time.Duration) {
	err := s.storage.SaveSession(s.ctx, &model.Session{
		Code:      model.SessionCode(code),
		CreatedAt: s.clock.Now().Add(-age),
	})
	s.Require().NoError(err)
}

func (s *CollectorSuite) exists(code string) bool {
	ok, err := s.storage.SessionExists(s.ctx, model.SessionCode(code))
	s.Require().NoError(err)
	return ok
}

func (s *CollectorSuite) TestRejectsNonPositiveTTL() {
	_, err := NewCollector(s.storage, s.clock, time.Minute, 0, testutil.NopLogger())
	s.ErrorIs(err, ErrInvalidTTL)

	_, err = NewCollector(s.storage, s.clock, time.Minute, -time.Hour, testutil.NopLogger())
	s.ErrorIs(err, ErrInvalidTTL)
}

func (s *CollectorSuite) TestRejectsNonPositiveInterval() {
	_, err := NewCollector(s.storage, s.clock, 0, time.Hour, testutil.NopLogger())
	s.ErrorIs(err, ErrInvalidInterval)
}

func (s *CollectorSuite) TestSweepDeletesOnlyExpired() {
	s.save("OLD001", 3*time.Hour)
	s.save("NEW001", 30*time.Minute)

	collector, err := NewCollector(s.storage, s.clock, time.Minute, time.Hour, testutil.NopLogger())
	s.Require().NoError(err)

	deleted, err := collector.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, deleted)
	s.False(s.exists("OLD001"))
	s.True(s.exists("NEW001"))
}

func (s *CollectorSuite) TestRunSweepsOnEveryTick() {
	collector, err := NewCollector(s.storage, s.clock, time.Minute, time.Hour, testutil.NopLogger())
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		collector.Run(ctx)
		close(done)
	}()

	s.Require().NoError(s.clock.BlockUntilContext(ctx, 1))

	s.save("AB12CD", 0)
	s.clock.Advance(61 * time.Minute)

	s.Eventually(func() bool { return !s.exists("AB12CD") }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func (s *CollectorSuite) TestRunSurvivesSweepErrors() {
	store := newFailingStorage(s.storage, 1)
	collector, err := NewCollector(store, s.clock, time.Minute, time.Hour, testutil.NopLogger())
	s.Require().NoError(err)

	s.save("AB12CD", 2*time.Hour)

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	go collector.Run(ctx)

	s.Require().NoError(s.clock.BlockUntilContext(ctx, 1))

	// First tick fails, second tick succeeds
	s.clock.Advance(time.Minute)
	s.Eventually(func() bool { return store.failures.Load() == 0 }, time.Second, 5*time.Millisecond)
	s.True(s.exists("AB12CD"))

	s.clock.Advance(time.Minute)
	s.Eventually(func() bool { return !s.exists("AB12CD") }, time.Second, 5*time.Millisecond)
}

func (s *CollectorSuite) TestSweepPropagatesErrors() {
	store := newFailingStorage(s.storage, 1)
	collector, err := NewCollector(store, s.clock, time.Minute, time.Hour, testutil.NopLogger())
	s.Require().NoError(err)

	_, err = collector.Sweep(s.ctx)
	s.True(errors.Is(err, model.ErrPersistence))
}
