// Package socket binds real-time connections to players and routes their
// events to the game.
package socket

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/clock"
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/realtime"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/game"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/session"
)

// Handshake query parameters
const (
	ParamSessionCode  = "sessionCode"
	ParamPlayerNumber = "playerNumber"
	ParamName         = "name"
)

// Conn is a client connection. socketio.Conn satisfies it.
type Conn interface {
	ID() string
	URL() url.URL
	Emit(event string, v ...interface{})
	Close() error
}

// RoundStarter starts and re-attaches session clocks
type RoundStarter interface {
	Start(ctx context.Context, code model.SessionCode) error
	Resume(ctx context.Context, code model.SessionCode) error
}

// binding is the player a connection speaks for
type binding struct {
	code         model.SessionCode
	playerNumber int
}

// Manager tracks which player each connection is bound to
type Manager struct {
	sessions *session.Controller
	game     *game.Controller
	rounds   RoundStarter
	gateway  *realtime.Gateway
	clock    clock.Clock
	logger   *slog.Logger

	mu       sync.Mutex
	bindings map[string]binding
}

// NewManager creates a connection Manager
func NewManager(
	sessions *session.Controller,
	game *game.Controller,
	rounds RoundStarter,
	gateway *realtime.Gateway,
	clock clock.Clock,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		sessions: sessions,
		game:     game,
		rounds:   rounds,
		gateway:  gateway,
		clock:    clock,
		logger:   logger.With(slog.String("component", "socket")),
		bindings: make(map[string]binding),
	}
}

// Connect binds conn to the player named in its handshake query. Without a
// player number a new player is added to the session. An unknown session or
// player gets an error event and the connection is closed.
func (m *Manager) Connect(ctx context.Context, conn Conn) error {
	u := conn.URL()
	query := u.Query()
	code := model.SessionCode(query.Get(ParamSessionCode))
	logger := m.logger.With(slog.String("conn_id", conn.ID()), slog.String("session_code", string(code)))

	sess, err := m.sessions.GetSession(ctx, code)
	if err != nil {
		m.reject(conn, logger, err)
		return err
	}

	var player *model.Player
	if number, convErr := strconv.Atoi(query.Get(ParamPlayerNumber)); convErr == nil && number > 0 {
		player = sess.GetPlayer(number)
		if player == nil {
			m.reject(conn, logger, model.ErrPlayerNotFound)
			return model.ErrPlayerNotFound
		}
	} else {
		_, player, err = m.sessions.JoinSession(ctx, code, query.Get(ParamName))
		if err != nil {
			m.reject(conn, logger, err)
			return err
		}
	}

	sess, err = m.sessions.SetConnected(ctx, code, player.PlayerNumber, true)
	if err != nil {
		m.reject(conn, logger, err)
		return err
	}
	self := sess.GetPlayer(player.PlayerNumber)
	logger = logger.With(slog.Int("player_number", self.PlayerNumber))

	m.mu.Lock()
	m.bindings[conn.ID()] = binding{code: code, playerNumber: self.PlayerNumber}
	m.mu.Unlock()

	conn.Emit(string(model.EventConnectionFeedback), model.ConnectionFeedbackPayload{
		Session: sess,
		Player:  self,
		Players: sess.Players,
	})
	m.gateway.Join(code, conn)

	if err := m.rounds.Resume(ctx, code); err != nil {
		logger.Error("failed to resume round clock", slog.String("error", err.Error()))
	}
	if err := m.gateway.BroadcastPlayers(ctx, code, conn.ID()); err != nil {
		logger.Warn("failed to broadcast players", slog.String("error", err.Error()))
	}

	logger.Info("player connected")
	return nil
}

// InitRound starts round 0 for the caller's session. A session that already
// has a round answers with an error event and keeps the connection.
func (m *Manager) InitRound(ctx context.Context, conn Conn) {
	b, ok := m.binding(conn)
	if !ok {
		return
	}
	if err := m.rounds.Start(ctx, b.code); err != nil {
		m.logger.Info("initRound rejected",
			slog.String("conn_id", conn.ID()),
			slog.String("session_code", string(b.code)),
			slog.String("error", err.Error()),
		)
		conn.Emit(string(model.EventError), model.ErrorPayload{Message: err.Error()})
	}
}

// SendPrompt runs the prompt and replies to the caller with the result or an alert
func (m *Manager) SendPrompt(ctx context.Context, conn Conn, req model.SendPromptRequest) model.PromptReply {
	reply := model.PromptReply{Timestamp: strconv.FormatInt(m.clock.Now().UnixMilli(), 10)}

	b, ok := m.binding(conn)
	if !ok {
		reply.Alert = model.AlertGenerationFail
		conn.Emit(string(model.EventSendPrompt), reply)
		return reply
	}

	result, err := m.game.SubmitPrompt(ctx, b.code, b.playerNumber, req.Prompt)
	if err != nil {
		reply.Alert = alertFor(err)
	} else {
		reply.Result = &model.PromptOutcome{
			Result:  result.Result,
			Prompt:  result.Prompt,
			Creator: result.PlayerNumber,
		}
	}
	conn.Emit(string(model.EventSendPrompt), reply)
	return reply
}

// ReceiveVote records the caller's vote. Votes outside Voting are dropped.
func (m *Manager) ReceiveVote(ctx context.Context, conn Conn, req model.ReceiveVoteRequest) {
	b, ok := m.binding(conn)
	if !ok {
		return
	}
	_, err := m.game.CastVote(ctx, b.code, b.playerNumber, req.Voted)
	switch {
	case err == nil:
	case model.KindOf(err) == model.KindOffPhase:
		m.logger.Debug("vote outside voting phase dropped",
			slog.String("session_code", string(b.code)),
			slog.Int("player_number", b.playerNumber),
		)
	default:
		conn.Emit(string(model.EventError), model.ErrorPayload{Message: err.Error()})
	}
}

// Disconnect marks the caller's player as disconnected. The player record stays.
func (m *Manager) Disconnect(ctx context.Context, conn Conn, reason string) {
	m.mu.Lock()
	b, ok := m.bindings[conn.ID()]
	delete(m.bindings, conn.ID())
	m.mu.Unlock()
	if !ok {
		return
	}

	logger := m.logger.With(
		slog.String("conn_id", conn.ID()),
		slog.String("session_code", string(b.code)),
		slog.Int("player_number", b.playerNumber),
	)

	m.gateway.Leave(b.code, conn.ID())
	if _, err := m.sessions.SetConnected(ctx, b.code, b.playerNumber, false); err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return
		}
		logger.Error("failed to mark player disconnected", slog.String("error", err.Error()))
		return
	}
	if err := m.gateway.BroadcastPlayers(ctx, b.code, ""); err != nil {
		logger.Warn("failed to broadcast players", slog.String("error", err.Error()))
	}
	logger.Info("player disconnected", slog.String("reason", reason))
}

// Bound returns the player a connection is bound to
func (m *Manager) Bound(connID string) (model.SessionCode, int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bindings[connID]
	return b.code, b.playerNumber, ok
}

func (m *Manager) binding(conn Conn) (binding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bindings[conn.ID()]
	return b, ok
}

func (m *Manager) reject(conn Conn, logger *slog.Logger, err error) {
	logger.Info("connection rejected", slog.String("error", err.Error()))
	conn.Emit(string(model.EventError), model.ErrorPayload{Message: err.Error()})
	if closeErr := conn.Close(); closeErr != nil {
		logger.Debug("close after reject failed", slog.String("error", closeErr.Error()))
	}
}

func alertFor(err error) string {
	switch {
	case errors.Is(err, model.ErrLateResult):
		return model.AlertLateResult
	case errors.Is(err, model.ErrOffPhase):
		return model.AlertOffPhasePrompt
	case errors.Is(err, model.ErrInvalidPrompt):
		return model.AlertEmptyPrompt
	default:
		return model.AlertGenerationFail
	}
}
