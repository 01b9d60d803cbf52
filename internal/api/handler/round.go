package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/itsinfi/prompt-with-friends-backend/internal/api/middleware"
	"github.com/itsinfi/prompt-with-friends-backend/internal/api/response"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/game"
)

// RoundHandler serves read-only round queries
type RoundHandler struct {
	game *game.Controller
}

// NewRoundHandler creates a new round handler
func NewRoundHandler(game *game.Controller) *RoundHandler {
	return &RoundHandler{game: game}
}

// Results handles GET /api/v1/sessions/{code}/rounds/{round}/results
func (h *RoundHandler) Results(w http.ResponseWriter, r *http.Request) {
	round, err := strconv.Atoi(mux.Vars(r)["round"])
	if err != nil {
		WriteError(w, NewInvalidRequestError("round must be a number"))
		return
	}

	sess := middleware.MustGetSession(r.Context())
	results, err := h.game.RoundResults(r.Context(), sess.Code, round)
	if err != nil {
		WriteError(w, err)
		return
	}

	body := response.RoundResults{Round: round, Results: results}
	if round < len(sess.Gamestate.Rounds) {
		body.Task = sess.Gamestate.Rounds[round].Task
	}
	response.JSON(w, http.StatusOK, body)
}

// Leaderboard handles GET /api/v1/sessions/{code}/leaderboard
func (h *RoundHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())
	standings, err := h.game.Leaderboard(r.Context(), sess.Code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Leaderboard{Standings: standings})
}
