package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/mocks"
	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/random"
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage/memory"
	"github.com/itsinfi/prompt-with-friends-backend/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) loadPool(ids ...string) {
	pool := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		pool = append(pool, model.Task{ID: id, Description: "Task " + id})
	}
	s.Require().NoError(s.service.LoadTasks(s.ctx, pool))
}

// Draw tests

func (s *ServiceSuite) TestDrawEmptyPoolReturnsFallback() {
	task, used, err := s.service.Draw(s.ctx, model.GameModeDefault, nil)
	s.Require().NoError(err)
	s.Equal(model.FallbackTask(), task)
	s.Empty(used)
}

func (s *ServiceSuite) TestDrawRecordsChosenID() {
	s.loadPool("a", "b", "c")
	s.random.QueueIntn(1)

	task, used, err := s.service.Draw(s.ctx, model.GameModeDefault, []string{})
	s.Require().NoError(err)
	s.Equal("b", task.ID)
	s.Equal([]string{"b"}, used)
}

func (s *ServiceSuite) TestDrawSkipsUsedTasks() {
	s.loadPool("a", "b", "c")
	s.random.QueueIntn(0)

	task, used, err := s.service.Draw(s.ctx, model.GameModeDefault, []string{"a", "b"})
	s.Require().NoError(err)
	s.Equal("c", task.ID)
	s.Equal([]string{"a", "b", "c"}, used)
}

func (s *ServiceSuite) TestDrawResetsWhenExhausted() {
	s.loadPool("a", "b")
	s.random.QueueIntn(1)

	task, used, err := s.service.Draw(s.ctx, model.GameModeDefault, []string{"a", "b"})
	s.Require().NoError(err)
	s.Equal("b", task.ID)
	s.Equal([]string{"b"}, used)
}

func (s *ServiceSuite) TestDrawDoesNotAliasInput() {
	s.loadPool("a", "b", "c")
	used := make([]string, 1, 8)
	used[0] = "a"

	_, next, err := s.service.Draw(s.ctx, model.GameModeDefault, used)
	s.Require().NoError(err)
	next[0] = "changed"
	s.Equal("a", used[0])
}

func (s *ServiceSuite) TestDrawFiltersByMode() {
	err := s.service.LoadTasks(s.ctx, []model.Task{
		{ID: "duel-only", Mode: "duel", Description: "Duel"},
		{ID: "any", Description: "Anything"},
	})
	s.Require().NoError(err)

	task, _, err := s.service.Draw(s.ctx, model.GameModeDefault, nil)
	s.Require().NoError(err)
	s.Equal("any", task.ID)
}

func (s *ServiceSuite) TestRotationNeverRepeatsBeforeExhaustion() {
	service := New(s.storage, random.New(), testutil.NopLogger())
	s.loadPool("a", "b", "c", "d", "e")

	var used []string
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		task, next, err := service.Draw(s.ctx, model.GameModeDefault, used)
		s.Require().NoError(err)
		s.False(seen[task.ID], "task %s repeated before exhaustion", task.ID)
		seen[task.ID] = true
		used = next
	}
	s.Len(seen, 5)

	_, used, err := service.Draw(s.ctx, model.GameModeDefault, used)
	s.Require().NoError(err)
	s.Len(used, 1)
}

// Loading tests

func (s *ServiceSuite) TestLoadFromFile() {
	count, err := s.service.LoadFromFile(s.ctx, "testdata/tasks.yaml")
	s.Require().NoError(err)
	s.Equal(3, count)

	pool, err := s.storage.GetTasks(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(pool, 3)
	s.Equal("cat", pool[0].ID)
	s.Equal([]string{"whiskers", "tail"}, pool[0].Tips)
	s.Equal("task-2", pool[1].ID)
	s.Equal(model.GameMode("duel"), pool[2].Mode)
}

func (s *ServiceSuite) TestLoadFromFileRejectsEmptyDescription() {
	_, err := s.service.LoadFromFile(s.ctx, "testdata/invalid.yaml")
	s.Error(err)
}

func (s *ServiceSuite) TestLoadFromFileMissing() {
	_, err := s.service.LoadFromFile(s.ctx, "testdata/nope.yaml")
	s.Error(err)
}

func (s *ServiceSuite) TestSeedDefaultsOnlyWhenEmpty() {
	s.Require().NoError(s.service.SeedDefaults(s.ctx))
	pool, _ := s.storage.GetTasks(s.ctx)
	s.Len(pool, len(DefaultPool()))

	s.loadPool("only")
	s.Require().NoError(s.service.SeedDefaults(s.ctx))
	pool, _ = s.storage.GetTasks(s.ctx)
	s.Len(pool, 1)
}
