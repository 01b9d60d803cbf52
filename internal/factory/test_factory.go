package factory

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/itsinfi/prompt-with-friends-backend/internal/ai"
	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/mocks"
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/game"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage/memory"
	"github.com/itsinfi/prompt-with-friends-backend/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *clockwork.FakeClock
	MockRandom *mocks.MockRandom
}

// TestTimers are short phase lengths for tests that drive the clock
var TestTimers = game.Timers{Prompting: 2, Voting: 2, Leaderboard: 1}

// NewTestApp creates an App on memory storage with a fake clock, queued
// randomness and a provider that echoes "generated: <prompt>".
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	provider := ai.ProviderFunc(func(ctx context.Context, prompt string) (string, error) {
		return "generated: " + prompt, nil
	})

	app, err := newWithDependencies(memory.New(), mockClock, mockRandom, provider, Options{
		Scheduler: game.SchedulerConfig{
			Timers:    TestTimers,
			Tick:      time.Second,
			AutoStart: false,
		},
		SessionTTL: 24 * time.Hour,
		GCInterval: time.Hour,
	}, testutil.NopLogger())
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// LoadTestTasks loads a small task pool for testing
func (t *TestApp) LoadTestTasks() error {
	return t.TaskService.LoadTasks(context.Background(), []model.Task{
		{ID: "cat", Description: "Draw a cat", Tips: []string{"Whiskers help"}},
		{ID: "dog", Description: "Draw a dog", Tips: []string{}},
		{ID: "duel", Mode: "duel", Description: "Only in duel mode", Tips: []string{}},
	})
}
