package response

import (
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/scoring"
)

// SessionWithPlayer is returned when a player is provisioned
type SessionWithPlayer struct {
	Session *model.Session `json:"session"`
	Player  *model.Player  `json:"player"`
}

// Session wraps a session snapshot
type Session struct {
	Session *model.Session `json:"session"`
}

// RoundResults lists each player's latest result in a round
type RoundResults struct {
	Round   int                  `json:"round"`
	Task    model.Task           `json:"task"`
	Results []model.PlayerResult `json:"results"`
}

// Leaderboard ranks a session's players
type Leaderboard struct {
	Standings []scoring.Standing `json:"standings"`
}

// Health reports liveness
type Health struct {
	Status string `json:"status"`
}
