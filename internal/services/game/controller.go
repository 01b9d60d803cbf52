package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/itsinfi/prompt-with-friends-backend/internal/ai"
	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/clock"
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/scoring"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/session"
)

// Controller gates player actions against the session's current phase
type Controller struct {
	sessions *session.Controller
	provider ai.Provider
	scoring  *scoring.Service
	clock    clock.Clock
	logger   *slog.Logger
}

// NewController creates a new GameController
func NewController(
	sessions *session.Controller,
	provider ai.Provider,
	scoring *scoring.Service,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		sessions: sessions,
		provider: provider,
		scoring:  scoring,
		clock:    clock,
		logger:   logger.With(slog.String("component", "game")),
	}
}

// SubmitPrompt generates a result for the prompt and records it in the active
// round. The phase is checked before generation and again before saving: a
// result that comes back after Prompting ended is dropped with ErrLateResult.
func (c *Controller) SubmitPrompt(ctx context.Context, code model.SessionCode, playerNumber int, prompt string) (*model.Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, model.ErrInvalidPrompt
	}

	sess, err := c.sessions.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	if sess.GetPlayer(playerNumber) == nil {
		return nil, model.ErrPlayerNotFound
	}
	if !sess.Gamestate.InPhase(model.PhasePrompting) {
		return nil, model.ErrOffPhase
	}
	round := *sess.Gamestate.ActiveRound

	logger := c.logger.With(
		slog.String("session_code", string(code)),
		slog.Int("player_number", playerNumber),
		slog.Int("round", round),
	)

	text, err := c.provider.Complete(ctx, prompt)
	if err != nil {
		logger.Error("prompt generation failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", model.ErrUpstreamFailure, err)
	}

	result := model.Result{
		ID:           uuid.NewString(),
		CreatedAt:    c.clock.Now(),
		Prompt:       prompt,
		PlayerNumber: playerNumber,
		Result:       text,
	}

	_, err = c.sessions.Mutate(ctx, code, func(sess *model.Session) error {
		if !sess.Gamestate.InPhase(model.PhasePrompting) || *sess.Gamestate.ActiveRound != round {
			return model.ErrLateResult
		}
		current := sess.Gamestate.CurrentRound()
		if current == nil {
			return model.ErrRoundNotFound
		}
		current.Results = append(current.Results, result)
		return nil
	})
	if err != nil {
		logger.Info("prompt result discarded", slog.String("reason", err.Error()))
		return nil, err
	}

	logger.Info("prompt result recorded")
	return &result, nil
}

// CastVote records the voter's choice for the active round, replacing any
// earlier vote by the same voter, and returns the round's votes.
func (c *Controller) CastVote(ctx context.Context, code model.SessionCode, voter, voted int) ([]model.Vote, error) {
	var votes []model.Vote
	_, err := c.sessions.Mutate(ctx, code, func(sess *model.Session) error {
		if sess.GetPlayer(voter) == nil || sess.GetPlayer(voted) == nil {
			return model.ErrPlayerNotFound
		}
		if !sess.Gamestate.InPhase(model.PhaseVoting) {
			return model.ErrOffPhase
		}
		round := sess.Gamestate.CurrentRound()
		if round == nil {
			return model.ErrRoundNotFound
		}
		round.UpsertVote(voter, voted)
		votes = append([]model.Vote(nil), round.Votes...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("vote recorded",
		slog.String("session_code", string(code)),
		slog.Int("player_number", voter),
		slog.Int("voted", voted),
	)
	return votes, nil
}

// RoundResults returns each player's latest result in the given round
func (c *Controller) RoundResults(ctx context.Context, code model.SessionCode, round int) ([]model.PlayerResult, error) {
	sess, err := c.sessions.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	if round < 0 || round >= len(sess.Gamestate.Rounds) {
		return nil, model.ErrRoundNotFound
	}
	return sess.Gamestate.Rounds[round].LatestResults(sess.Players), nil
}

// Leaderboard ranks the session's players by score
func (c *Controller) Leaderboard(ctx context.Context, code model.SessionCode) ([]scoring.Standing, error) {
	sess, err := c.sessions.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.scoring.Leaderboard(sess.Players), nil
}
