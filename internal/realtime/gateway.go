// Package realtime fans session events out to every connection subscribed to a session.
package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

// Member is one subscribed connection. socketio.Conn satisfies it directly.
type Member interface {
	ID() string
	Emit(event string, v ...interface{})
}

// Sink receives a copy of every broadcast, e.g. to relay it to other instances
type Sink interface {
	Publish(code model.SessionCode, event model.EventType, payload any) error
}

// SessionReader loads the snapshot sent with updateSession and updatePlayers
type SessionReader interface {
	GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error)
}

// Gateway keeps one broadcast group per session code
type Gateway struct {
	sessions SessionReader
	sinks    []Sink
	logger   *slog.Logger

	mu     sync.RWMutex
	groups map[model.SessionCode]map[string]Member
}

// New creates a Gateway
func New(sessions SessionReader, logger *slog.Logger, sinks ...Sink) *Gateway {
	return &Gateway{
		sessions: sessions,
		sinks:    sinks,
		logger:   logger.With(slog.String("component", "realtime")),
		groups:   make(map[model.SessionCode]map[string]Member),
	}
}

// AddSink registers a sink for every later broadcast
func (g *Gateway) AddSink(s Sink) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sinks = append(g.sinks, s)
}

// Join adds a member to the session's group
func (g *Gateway) Join(code model.SessionCode, m Member) {
	g.mu.Lock()
	group, ok := g.groups[code]
	if !ok {
		group = make(map[string]Member)
		g.groups[code] = group
	}
	group[m.ID()] = m
	size := len(group)
	g.mu.Unlock()

	g.logger.Debug("member joined",
		slog.String("session_code", string(code)),
		slog.String("conn_id", m.ID()),
		slog.Int("group_size", size),
	)
}

// Leave removes a member from the session's group
func (g *Gateway) Leave(code model.SessionCode, connID string) {
	g.mu.Lock()
	if group, ok := g.groups[code]; ok {
		delete(group, connID)
		if len(group) == 0 {
			delete(g.groups, code)
		}
	}
	g.mu.Unlock()

	g.logger.Debug("member left",
		slog.String("session_code", string(code)),
		slog.String("conn_id", connID),
	)
}

// GroupSize returns the number of members subscribed to a session
func (g *Gateway) GroupSize(code model.SessionCode) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.groups[code])
}

// BroadcastSession reloads the session and pushes it to the whole group
func (g *Gateway) BroadcastSession(ctx context.Context, code model.SessionCode) error {
	session, err := g.sessions.GetSession(ctx, code)
	if err != nil {
		return err
	}
	g.emit(code, "", model.EventUpdateSession, model.SessionPayload{Session: session})
	return nil
}

// BroadcastPlayers pushes the player list to the group. A non-empty excludeConnID skips that member.
func (g *Gateway) BroadcastPlayers(ctx context.Context, code model.SessionCode, excludeConnID string) error {
	session, err := g.sessions.GetSession(ctx, code)
	if err != nil {
		return err
	}
	g.emit(code, excludeConnID, model.EventUpdatePlayers, model.PlayersPayload{Players: session.Players})
	return nil
}

// BroadcastTimer pushes the seconds remaining in the current phase
func (g *Gateway) BroadcastTimer(code model.SessionCode, remaining int) {
	g.emit(code, "", model.EventTimer, model.TimerPayload{Time: remaining})
}

// Deliver emits an event that another instance already broadcast. Sinks are skipped.
func (g *Gateway) Deliver(code model.SessionCode, event model.EventType, payload any) {
	g.emitLocal(code, "", event, payload)
}

func (g *Gateway) emit(code model.SessionCode, excludeConnID string, event model.EventType, payload any) {
	g.emitLocal(code, excludeConnID, event, payload)

	g.mu.RLock()
	sinks := g.sinks
	g.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Publish(code, event, payload); err != nil {
			g.logger.Warn("relay publish failed",
				slog.String("session_code", string(code)),
				slog.String("event", string(event)),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (g *Gateway) emitLocal(code model.SessionCode, excludeConnID string, event model.EventType, payload any) {
	g.mu.RLock()
	members := make([]Member, 0, len(g.groups[code]))
	for id, m := range g.groups[code] {
		if id == excludeConnID {
			continue
		}
		members = append(members, m)
	}
	g.mu.RUnlock()

	for _, m := range members {
		m.Emit(string(event), payload)
	}
}
