package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/itsinfi/prompt-with-friends-backend/internal/api/handler"
	"github.com/itsinfi/prompt-with-friends-backend/internal/api/middleware"
	"github.com/itsinfi/prompt-with-friends-backend/internal/api/response"
	"github.com/itsinfi/prompt-with-friends-backend/internal/realtime"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/game"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	SessionController *session.Controller
	GameController    *game.Controller
	Gateway           *realtime.Gateway
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(cfg.SessionController, cfg.Gateway, cfg.Logger)
	roundHandler := handler.NewRoundHandler(cfg.GameController)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	sessionMiddleware := middleware.Session(cfg.SessionController)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/sessions", sessionHandler.Create).Methods(http.MethodPost)

	// Routes under a session code resolve the session first
	sessions := api.PathPrefix("/sessions/{code}").Subrouter()
	sessions.Use(sessionMiddleware)
	sessions.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	sessions.HandleFunc("/players", sessionHandler.Join).Methods(http.MethodPost)
	sessions.HandleFunc("/events", sessionHandler.Events).Methods(http.MethodGet)
	sessions.HandleFunc("/rounds/{round}/results", roundHandler.Results).Methods(http.MethodGet)
	sessions.HandleFunc("/leaderboard", roundHandler.Leaderboard).Methods(http.MethodGet)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Original route names kept for existing frontends
	legacy := r.PathPrefix("/session").Subrouter()
	legacy.Use(recoveryMiddleware)
	legacy.Use(loggingMiddleware)
	legacy.HandleFunc("/create", sessionHandler.LegacyCreate).Methods(http.MethodPost)
	legacy.HandleFunc("/join", sessionHandler.LegacyJoin).Methods(http.MethodPost)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
