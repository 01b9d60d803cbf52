package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.SessionTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) newSession(code string, createdAt time.Time) *model.Session {
	session := &model.Session{
		Code:      model.SessionCode(code),
		CreatedAt: createdAt,
		Mode:      model.GameModeDefault,
	}
	session.AddPlayer("Alice", true)
	return session
}

// Session tests

func (s *StorageSuite) TestSaveAndGetSession() {
	session := s.newSession("AB12CD", s.now)
	session.Gamestate.Rounds = []model.Round{{
		Task:  model.Task{ID: "t1", Description: "Draw a cat", Tips: []string{"whiskers"}},
		Votes: []model.Vote{{Voter: 2, Voted: 1}},
	}}
	session.Gamestate.SetActiveRound(0)
	session.Gamestate.SetPhase(model.PhaseVoting)

	err := s.storage.SaveSession(s.ctx, session)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetSession(s.ctx, "AB12CD")
	s.Require().NoError(err)
	s.Equal(session.Code, retrieved.Code)
	s.True(session.CreatedAt.Equal(retrieved.CreatedAt))
	s.Equal(session.Players, retrieved.Players)
	s.True(retrieved.Gamestate.InPhase(model.PhaseVoting))
	s.Equal(0, *retrieved.Gamestate.ActiveRound)
	s.Equal([]model.Vote{{Voter: 2, Voted: 1}}, retrieved.Gamestate.Rounds[0].Votes)
}

func (s *StorageSuite) TestUnstartedSessionKeepsNilGamestate() {
	_ = s.storage.SaveSession(s.ctx, s.newSession("AB12CD", s.now))

	retrieved, err := s.storage.GetSession(s.ctx, "AB12CD")
	s.Require().NoError(err)
	s.Nil(retrieved.Gamestate.ActiveRound)
	s.Nil(retrieved.Gamestate.RoundPhase)
}

func (s *StorageSuite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, "NOPE00")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestSessionHasTTL() {
	_ = s.storage.SaveSession(s.ctx, s.newSession("AB12CD", s.now))

	ttl := s.mini.TTL(sessionKey("AB12CD"))
	s.True(ttl > 0, "session key should have a TTL")
}

func (s *StorageSuite) TestDeleteSession() {
	_ = s.storage.SaveSession(s.ctx, s.newSession("AB12CD", s.now))

	err := s.storage.DeleteSession(s.ctx, "AB12CD")
	s.Require().NoError(err)

	exists, err := s.storage.SessionExists(s.ctx, "AB12CD")
	s.Require().NoError(err)
	s.False(exists)

	members, _ := s.mini.ZMembers(sessionsByCreationKey())
	s.NotContains(members, "AB12CD")
}

func (s *StorageSuite) TestDeleteSessionsOlderThan() {
	_ = s.storage.SaveSession(s.ctx, s.newSession("OLD001", s.now.Add(-2*time.Hour)))
	_ = s.storage.SaveSession(s.ctx, s.newSession("OLD002", s.now.Add(-90*time.Minute)))
	_ = s.storage.SaveSession(s.ctx, s.newSession("NEW001", s.now.Add(-10*time.Minute)))

	deleted, err := s.storage.DeleteSessionsOlderThan(s.ctx, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(2, deleted)

	_, err = s.storage.GetSession(s.ctx, "OLD001")
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.storage.GetSession(s.ctx, "OLD002")
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.storage.GetSession(s.ctx, "NEW001")
	s.NoError(err)

	members, _ := s.mini.ZMembers(sessionsByCreationKey())
	s.Equal([]string{"NEW001"}, members)
}

func (s *StorageSuite) TestDeleteSessionsOlderThanNothingExpired() {
	_ = s.storage.SaveSession(s.ctx, s.newSession("NEW001", s.now))

	deleted, err := s.storage.DeleteSessionsOlderThan(s.ctx, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(0, deleted)
}

func (s *StorageSuite) TestResaveKeepsSingleIndexEntry() {
	session := s.newSession("AB12CD", s.now)
	_ = s.storage.SaveSession(s.ctx, session)
	session.AddPlayer("Bob", false)
	_ = s.storage.SaveSession(s.ctx, session)

	members, _ := s.mini.ZMembers(sessionsByCreationKey())
	s.Equal([]string{"AB12CD"}, members)
}

func (s *StorageSuite) TestPersistenceErrorIsWrapped() {
	s.mini.SetError("connection lost")
	defer s.mini.SetError("")

	_, err := s.storage.GetSession(s.ctx, "AB12CD")
	s.ErrorIs(err, model.ErrPersistence)
}

// Task tests

func (s *StorageSuite) TestTasksEmptyByDefault() {
	tasks, err := s.storage.GetTasks(s.ctx)
	s.Require().NoError(err)
	s.Empty(tasks)
}

func (s *StorageSuite) TestSaveAndGetTasks() {
	pool := []model.Task{
		{ID: "cat", Description: "Draw a cat", Tips: []string{"whiskers"}},
		{ID: "dog", Description: "Draw a dog"},
	}
	err := s.storage.SaveTasks(s.ctx, pool)
	s.Require().NoError(err)

	tasks, err := s.storage.GetTasks(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(tasks, 2)
	s.Equal("cat", tasks[0].ID)
	s.Equal([]string{"whiskers"}, tasks[0].Tips)

	s.Equal(time.Duration(0), s.mini.TTL(tasksKey()), "task pool should not expire")
}
