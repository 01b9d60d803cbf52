package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/itsinfi/prompt-with-friends-backend/internal/api/middleware"
	"github.com/itsinfi/prompt-with-friends-backend/internal/api/request"
	"github.com/itsinfi/prompt-with-friends-backend/internal/api/response"
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/realtime"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/session"
)

// SessionHandler handles session creation, joining and lookup
type SessionHandler struct {
	sessions *session.Controller
	gateway  *realtime.Gateway
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Controller, gateway *realtime.Gateway, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		gateway:  gateway,
		logger:   logger,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSessionRequest
	if err := decodeOptional(r, &req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}

	sess, player, err := h.sessions.CreateSession(r.Context(), req.Name, model.GameMode(req.Mode))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionWithPlayer{Session: sess, Player: player})
}

// Join handles POST /api/v1/sessions/{code}/players
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinSessionRequest
	if err := decodeOptional(r, &req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}

	code := middleware.MustGetSession(r.Context()).Code
	h.join(w, r, code, req.Name)
}

// Get handles GET /api/v1/sessions/{code}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Session{Session: middleware.MustGetSession(r.Context())})
}

// Events handles GET /api/v1/sessions/{code}/events
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	realtime.ServeSSE(w, r, h.gateway, middleware.MustGetSession(r.Context()).Code)
}

// LegacyCreate handles POST /session/create
func (h *SessionHandler) LegacyCreate(w http.ResponseWriter, r *http.Request) {
	var req request.LegacyCreateRequest
	if err := decodeOptional(r, &req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}

	sess, player, err := h.sessions.CreateSession(r.Context(), req.Name, "")
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionWithPlayer{Session: sess, Player: player})
}

// LegacyJoin handles POST /session/join
func (h *SessionHandler) LegacyJoin(w http.ResponseWriter, r *http.Request) {
	var req request.LegacyJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionCode == "" {
		WriteError(w, NewInvalidRequestError("sessionCode required"))
		return
	}

	h.join(w, r, model.SessionCode(strings.ToUpper(req.SessionCode)), req.PlayerName)
}

func (h *SessionHandler) join(w http.ResponseWriter, r *http.Request, code model.SessionCode, name string) {
	sess, player, err := h.sessions.JoinSession(r.Context(), code, name)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.gateway.BroadcastPlayers(r.Context(), code, ""); err != nil {
		h.logger.Warn("failed to broadcast players",
			slog.String("session_code", string(code)),
			slog.String("error", err.Error()),
		)
	}

	response.JSON(w, http.StatusCreated, response.SessionWithPlayer{Session: sess, Player: player})
}

// decodeOptional decodes a JSON body, treating an empty body as the zero value
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
