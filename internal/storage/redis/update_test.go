package redis

import (
	"errors"
	"time"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

// Atomic update tests

func (s *StorageSuite) TestUpdateSessionAppliesChange() {
	s.Require().NoError(s.storage.SaveSession(s.ctx, s.newSession("AB12CD", s.now)))

	updated, err := s.storage.UpdateSession(s.ctx, "AB12CD", func(session *model.Session) error {
		session.AddPlayer("Bob", false)
		return nil
	})
	s.Require().NoError(err)
	s.Len(updated.Players, 2)

	stored, err := s.storage.GetSession(s.ctx, "AB12CD")
	s.Require().NoError(err)
	s.Len(stored.Players, 2)
	s.True(s.mini.TTL(sessionKey("AB12CD")) > 0)
}

func (s *StorageSuite) TestUpdateSessionNotFound() {
	called := false
	_, err := s.storage.UpdateSession(s.ctx, "NOPE00", func(*model.Session) error {
		called = true
		return nil
	})
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.False(called)
}

func (s *StorageSuite) TestUpdateSessionErrorPersistsNothing() {
	s.Require().NoError(s.storage.SaveSession(s.ctx, s.newSession("AB12CD", s.now)))

	_, err := s.storage.UpdateSession(s.ctx, "AB12CD", func(session *model.Session) error {
		session.AddPlayer("Bob", false)
		return model.ErrDuplicateInit
	})
	s.ErrorIs(err, model.ErrDuplicateInit)

	stored, err := s.storage.GetSession(s.ctx, "AB12CD")
	s.Require().NoError(err)
	s.Len(stored.Players, 1)
}

func (s *StorageSuite) TestUpdateSessionRetriesOnConcurrentWrite() {
	s.Require().NoError(s.storage.SaveSession(s.ctx, s.newSession("AB12CD", s.now)))

	calls := 0
	updated, err := s.storage.UpdateSession(s.ctx, "AB12CD", func(session *model.Session) error {
		calls++
		if calls == 1 {
			// Another writer lands between our read and our EXEC
			other, err := s.storage.GetSession(s.ctx, "AB12CD")
			s.Require().NoError(err)
			other.AddPlayer("Bob", false)
			s.Require().NoError(s.storage.SaveSession(s.ctx, other))
		}
		session.AddPlayer("Carol", false)
		return nil
	})
	s.Require().NoError(err)
	s.Equal(2, calls)

	names := make([]string, 0, len(updated.Players))
	for _, p := range updated.Players {
		names = append(names, p.Name)
	}
	s.Equal([]string{"Alice", "Bob", "Carol"}, names)
}

func (s *StorageSuite) TestUpdateSessionGivesUpAfterRetries() {
	s.Require().NoError(s.storage.SaveSession(s.ctx, s.newSession("AB12CD", s.now)))

	calls := 0
	_, err := s.storage.UpdateSession(s.ctx, "AB12CD", func(session *model.Session) error {
		calls++
		other, err := s.storage.GetSession(s.ctx, "AB12CD")
		s.Require().NoError(err)
		other.CreatedAt = other.CreatedAt.Add(time.Second)
		s.Require().NoError(s.storage.SaveSession(s.ctx, other))
		return nil
	})
	s.ErrorIs(err, model.ErrPersistence)
	s.True(errors.Is(err, ErrTooManyConflicts))
	s.Equal(DefaultConfig().MaxUpdateRetries, calls)
}

// Clock lease tests

func (s *StorageSuite) TestClockLeaseIsExclusive() {
	a := NewClockLease(s.storage.Client(), "instance-a")
	b := NewClockLease(s.storage.Client(), "instance-b")

	held, err := a.Acquire(s.ctx, "AB12CD", 3*time.Second)
	s.Require().NoError(err)
	s.True(held)

	held, err = b.Acquire(s.ctx, "AB12CD", 3*time.Second)
	s.Require().NoError(err)
	s.False(held)

	// Renewal by the holder succeeds and extends the expiry
	s.mini.FastForward(2 * time.Second)
	held, err = a.Acquire(s.ctx, "AB12CD", 3*time.Second)
	s.Require().NoError(err)
	s.True(held)
	s.Equal(3*time.Second, s.mini.TTL(clockLeaseKey("AB12CD")))

	// Other sessions are independent
	held, err = b.Acquire(s.ctx, "ZZ99ZZ", 3*time.Second)
	s.Require().NoError(err)
	s.True(held)
}

func (s *StorageSuite) TestClockLeaseReleaseOnlyByOwner() {
	a := NewClockLease(s.storage.Client(), "instance-a")
	b := NewClockLease(s.storage.Client(), "instance-b")

	_, err := a.Acquire(s.ctx, "AB12CD", 3*time.Second)
	s.Require().NoError(err)

	s.Require().NoError(b.Release(s.ctx, "AB12CD"))
	s.True(s.mini.Exists(clockLeaseKey("AB12CD")))

	s.Require().NoError(a.Release(s.ctx, "AB12CD"))
	s.False(s.mini.Exists(clockLeaseKey("AB12CD")))

	held, err := b.Acquire(s.ctx, "AB12CD", 3*time.Second)
	s.Require().NoError(err)
	s.True(held)
}

func (s *StorageSuite) TestClockLeaseExpires() {
	a := NewClockLease(s.storage.Client(), "instance-a")
	b := NewClockLease(s.storage.Client(), "instance-b")

	_, err := a.Acquire(s.ctx, "AB12CD", 3*time.Second)
	s.Require().NoError(err)

	s.mini.FastForward(4 * time.Second)

	held, err := b.Acquire(s.ctx, "AB12CD", 3*time.Second)
	s.Require().NoError(err)
	s.True(held)
	s.Equal("instance-b", s.mustGet(clockLeaseKey("AB12CD")))
}

func (s *StorageSuite) mustGet(key string) string {
	v, err := s.mini.Get(key)
	s.Require().NoError(err)
	return v
}
