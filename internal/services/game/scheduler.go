package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/clock"
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/scoring"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/session"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/tasks"
)

// Broadcaster pushes scheduler output to a session's connections
type Broadcaster interface {
	BroadcastSession(ctx context.Context, code model.SessionCode) error
	BroadcastTimer(code model.SessionCode, remaining int)
}

// Timers holds each phase's length in ticks
type Timers struct {
	Prompting   int
	Voting      int
	Leaderboard int
}

// DefaultTimers returns the stock phase lengths in seconds
func DefaultTimers() Timers {
	return Timers{Prompting: 60, Voting: 30, Leaderboard: 15}
}

// For returns the length of phase p
func (t Timers) For(p model.RoundPhase) int {
	switch p {
	case model.PhasePrompting:
		return t.Prompting
	case model.PhaseVoting:
		return t.Voting
	default:
		return t.Leaderboard
	}
}

// ClockLease grants one process at a time the right to run a session's clock.
// Acquire both takes a free lease and renews one the caller already holds.
type ClockLease interface {
	Acquire(ctx context.Context, code model.SessionCode, ttl time.Duration) (bool, error)
	Release(ctx context.Context, code model.SessionCode) error
}

// SchedulerConfig configures the phase clock
type SchedulerConfig struct {
	Timers Timers
	// Tick is the length of one countdown step
	Tick time.Duration
	// AutoStart makes Resume start round 0 for sessions that have not begun
	AutoStart bool
	// Lease is required when instances share a store. Nil keeps clocks process-local.
	Lease ClockLease
	// LeaseTTL is how long a lease outlives its last renewal. Defaults to three ticks.
	LeaseTTL time.Duration
}

// DefaultSchedulerConfig returns one-second ticks with the stock timers
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Timers:    DefaultTimers(),
		Tick:      time.Second,
		AutoStart: true,
	}
}

// runner is the clock of one session
type runner struct {
	code      model.SessionCode
	remaining int
	cancel    context.CancelFunc
	done      chan struct{}
}

// Scheduler drives the Prompting, Voting, Leaderboard cycle of every active
// session. Each session gets one ticker goroutine that stops on its own once
// the session is gone from storage.
type Scheduler struct {
	sessions    *session.Controller
	tasks       *tasks.Service
	scoring     *scoring.Service
	broadcaster Broadcaster
	clock       clock.Clock
	cfg         SchedulerConfig
	logger      *slog.Logger

	mu      sync.Mutex
	runners map[model.SessionCode]*runner
	closed  bool
}

// NewScheduler creates a Scheduler
func NewScheduler(
	sessions *session.Controller,
	tasks *tasks.Service,
	scoring *scoring.Service,
	broadcaster Broadcaster,
	clock clock.Clock,
	cfg SchedulerConfig,
	logger *slog.Logger,
) *Scheduler {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 3 * cfg.Tick
	}
	return &Scheduler{
		sessions:    sessions,
		tasks:       tasks,
		scoring:     scoring,
		broadcaster: broadcaster,
		clock:       clock,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "scheduler")),
		runners:     make(map[model.SessionCode]*runner),
	}
}

// Start creates round 0 in Prompting and starts the session's clock.
// It returns ErrDuplicateInit if the session already has an active round.
func (s *Scheduler) Start(ctx context.Context, code model.SessionCode) error {
	_, err := s.sessions.Mutate(ctx, code, func(sess *model.Session) error {
		if sess.Gamestate.Started() {
			return model.ErrDuplicateInit
		}
		return s.appendRound(ctx, sess)
	})
	if err != nil {
		return err
	}

	s.logger.Info("game started", slog.String("session_code", string(code)))

	if err := s.broadcaster.BroadcastSession(ctx, code); err != nil {
		s.logger.Warn("broadcast after start failed",
			slog.String("session_code", string(code)),
			slog.String("error", err.Error()),
		)
	}
	s.launch(ctx, code, s.cfg.Timers.Prompting)
	return nil
}

// Resume makes sure a session that has a round also has a clock in this
// process. With AutoStart it starts round 0 for sessions that have not begun.
func (s *Scheduler) Resume(ctx context.Context, code model.SessionCode) error {
	if s.Running(code) {
		return nil
	}

	sess, err := s.sessions.GetSession(ctx, code)
	if err != nil {
		return err
	}

	phase, ok := sess.Gamestate.Phase()
	if !ok {
		if !s.cfg.AutoStart {
			return nil
		}
		err := s.Start(ctx, code)
		if errors.Is(err, model.ErrDuplicateInit) {
			// Another caller won the race
			return nil
		}
		return err
	}

	if s.launch(ctx, code, s.cfg.Timers.For(phase)) {
		s.logger.Info("clock resumed",
			slog.String("session_code", string(code)),
			slog.String("phase", phase.String()),
		)
	}
	return nil
}

// Running reports whether the session's clock runs in this process
func (s *Scheduler) Running(code model.SessionCode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.runners[code]
	return ok
}

// Shutdown stops every clock and waits for them to exit
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	runners := make([]*runner, 0, len(s.runners))
	for _, r := range s.runners {
		r.cancel()
		runners = append(runners, r)
	}
	s.mu.Unlock()

	for _, r := range runners {
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// launch starts the session's clock unless one already runs here or another
// process holds its lease. It reports whether a new clock was started.
func (s *Scheduler) launch(ctx context.Context, code model.SessionCode, remaining int) bool {
	if !s.launchable(code) {
		return false
	}
	if !s.acquireLease(ctx, code) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runners[code]; ok {
		return false
	}
	if s.closed {
		s.releaseLease(code)
		return false
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &runner{
		code:      code,
		remaining: remaining,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.runners[code] = r
	go s.run(runCtx, r)
	return true
}

func (s *Scheduler) launchable(code model.SessionCode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, running := s.runners[code]
	return !s.closed && !running
}

func (s *Scheduler) acquireLease(ctx context.Context, code model.SessionCode) bool {
	if s.cfg.Lease == nil {
		return true
	}
	held, err := s.cfg.Lease.Acquire(ctx, code, s.cfg.LeaseTTL)
	if err != nil {
		s.logger.Error("clock lease unavailable",
			slog.String("session_code", string(code)),
			slog.String("error", err.Error()),
		)
		return false
	}
	if !held {
		s.logger.Debug("clock runs in another instance", slog.String("session_code", string(code)))
	}
	return held
}

func (s *Scheduler) releaseLease(code model.SessionCode) {
	if s.cfg.Lease == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.LeaseTTL)
	defer cancel()
	if err := s.cfg.Lease.Release(ctx, code); err != nil {
		s.logger.Warn("clock lease release failed",
			slog.String("session_code", string(code)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Scheduler) run(ctx context.Context, r *runner) {
	defer close(r.done)
	defer func() {
		r.cancel()
		s.releaseLease(r.code)
		s.mu.Lock()
		if s.runners[r.code] == r {
			delete(s.runners, r.code)
		}
		s.mu.Unlock()
	}()

	ticker := s.clock.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if !s.tick(ctx, r) {
				return
			}
		}
	}
}

// tick runs one countdown step and reports whether the clock should keep going
func (s *Scheduler) tick(ctx context.Context, r *runner) bool {
	logger := s.logger.With(slog.String("session_code", string(r.code)))

	if s.cfg.Lease != nil {
		held, err := s.cfg.Lease.Acquire(ctx, r.code, s.cfg.LeaseTTL)
		if err != nil {
			logger.Error("tick skipped, clock lease unavailable", slog.String("error", err.Error()))
			return true
		}
		if !held {
			logger.Warn("clock lease taken by another instance, clock stopped")
			return false
		}
	}

	if _, err := s.sessions.GetSession(ctx, r.code); err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			logger.Info("session gone, clock stopped")
			return false
		}
		logger.Error("tick skipped", slog.String("error", err.Error()))
		return true
	}

	if r.remaining > 0 {
		s.broadcaster.BroadcastTimer(r.code, r.remaining)
		r.remaining--
		return true
	}

	sess, err := s.advance(ctx, r.code)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			logger.Info("session gone, clock stopped")
			return false
		}
		// remaining stays at zero so the next tick retries
		logger.Error("phase advance failed", slog.String("error", err.Error()))
		return true
	}

	phase, _ := sess.Gamestate.Phase()
	r.remaining = s.cfg.Timers.For(phase)

	logger.Info("phase advanced",
		slog.Int("round", *sess.Gamestate.ActiveRound),
		slog.String("phase", phase.String()),
	)

	if err := s.broadcaster.BroadcastSession(ctx, r.code); err != nil {
		logger.Warn("broadcast after advance failed", slog.String("error", err.Error()))
	}
	return true
}

// advance moves the session one phase forward. Leaving Voting applies the
// round's votes to scores. Leaving Leaderboard opens the next round.
func (s *Scheduler) advance(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	return s.sessions.Mutate(ctx, code, func(sess *model.Session) error {
		phase, ok := sess.Gamestate.Phase()
		if !ok {
			return model.ErrRoundNotFound
		}

		switch phase {
		case model.PhasePrompting:
			sess.Gamestate.SetPhase(model.PhaseVoting)
		case model.PhaseVoting:
			s.scoring.ApplyRound(sess, sess.Gamestate.CurrentRound())
			sess.Gamestate.SetPhase(model.PhaseLeaderboard)
		default:
			return s.appendRound(ctx, sess)
		}
		return nil
	})
}

// appendRound draws a task, appends a new round and makes it the active one in Prompting
func (s *Scheduler) appendRound(ctx context.Context, sess *model.Session) error {
	task, used, err := s.tasks.Draw(ctx, sess.Mode, sess.Gamestate.UsedTasks)
	if err != nil {
		return err
	}

	sess.Gamestate.UsedTasks = used
	sess.Gamestate.Rounds = append(sess.Gamestate.Rounds, model.Round{
		CreatedAt: s.clock.Now(),
		Task:      task,
		Results:   []model.Result{},
		Votes:     []model.Vote{},
	})
	sess.Gamestate.SetActiveRound(len(sess.Gamestate.Rounds) - 1)
	sess.Gamestate.SetPhase(model.PhasePrompting)
	return nil
}
