package session

import (
	"context"
	"log/slog"
	"strings"

	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/clock"
	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/random"
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage"
)

const (
	// CodeLength is the length of generated session codes
	CodeLength = 6
	// CodeAlphabet is the characters used in session codes
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// DefaultPlayerName is used when a player joins without a name
	DefaultPlayerName = "Anonymous"
)

// MutateFunc changes a loaded session in place. Returning an error abandons the change.
type MutateFunc func(session *model.Session) error

// Controller owns session records and serializes every mutation per session code
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
	locks   *keyedMutex
}

// NewController creates a new session Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "session")),
		locks:   newKeyedMutex(),
	}
}

// CreateSession creates a new session with the named player as host
func (c *Controller) CreateSession(ctx context.Context, hostName string, mode model.GameMode) (*model.Session, *model.Player, error) {
	if mode == "" {
		mode = model.GameModeDefault
	}
	if !mode.Valid() {
		return nil, nil, model.ErrUnsupportedMode
	}

	// Generate unique session code
	var code model.SessionCode
	for {
		code = model.SessionCode(c.random.String(CodeLength, CodeAlphabet))
		exists, err := c.storage.SessionExists(ctx, code)
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			break
		}
	}

	session := &model.Session{
		Code:      code,
		CreatedAt: c.clock.Now(),
		Players:   []model.Player{},
		Mode:      mode,
		Gamestate: model.Gamestate{
			Rounds:    []model.Round{},
			UsedTasks: []string{},
		},
	}
	host := session.AddPlayer(playerName(hostName), true)

	if err := c.storage.SaveSession(ctx, session); err != nil {
		c.logger.Error("failed to save session",
			slog.String("session_code", string(code)),
			slog.String("error", err.Error()),
		)
		return nil, nil, err
	}

	c.logger.Info("session created",
		slog.String("session_code", string(code)),
		slog.String("mode", string(mode)),
	)

	return session, &host, nil
}

// GetSession retrieves a session by code
func (c *Controller) GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	return c.storage.GetSession(ctx, code)
}

// JoinSession provisions a new player in the session. Player numbers are never reused.
func (c *Controller) JoinSession(ctx context.Context, code model.SessionCode, name string) (*model.Session, *model.Player, error) {
	var player model.Player
	session, err := c.Mutate(ctx, code, func(s *model.Session) error {
		player = s.AddPlayer(playerName(name), false)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	c.logger.Info("player joined",
		slog.String("session_code", string(code)),
		slog.Int("player_number", player.PlayerNumber),
	)
	return session, &player, nil
}

// SetConnected flips a player's connection flag. The player record is kept either way.
func (c *Controller) SetConnected(ctx context.Context, code model.SessionCode, playerNumber int, connected bool) (*model.Session, error) {
	return c.Mutate(ctx, code, func(s *model.Session) error {
		p := s.GetPlayer(playerNumber)
		if p == nil {
			return model.ErrPlayerNotFound
		}
		p.IsConnected = connected
		return nil
	})
}

// Mutate loads the session, applies fn and saves the result while holding the
// session's lock. Reads through GetSession never wait on it. Stores shared with
// other processes apply fn through their own optimistic transaction, so fn may
// run more than once and must only touch the session it is given.
func (c *Controller) Mutate(ctx context.Context, code model.SessionCode, fn MutateFunc) (*model.Session, error) {
	unlock := c.locks.Lock(code)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if updater, ok := c.storage.(storage.SessionUpdater); ok {
		session, err := updater.UpdateSession(ctx, code, fn)
		if err != nil && model.KindOf(err) == model.KindPersistence {
			c.logger.Error("failed to update session",
				slog.String("session_code", string(code)),
				slog.String("error", err.Error()),
			)
		}
		return session, err
	}

	session, err := c.storage.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := c.storage.SaveSession(ctx, session); err != nil {
		c.logger.Error("failed to save session",
			slog.String("session_code", string(code)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return session, nil
}

func playerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultPlayerName
	}
	return name
}
