package scoring

import (
	"sort"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

// Tally counts the votes each player received. Self-votes count like any other.
func Tally(votes []model.Vote) map[int]int {
	increments := make(map[int]int)
	for _, v := range votes {
		increments[v.Voted]++
	}
	return increments
}

// Service applies round results to player scores
type Service struct{}

// New creates a new ScoringService
func New() *Service {
	return &Service{}
}

// ApplyRound adds the round's vote counts to the matching players' scores and
// returns the increments that were applied. Votes for unknown players are ignored.
func (s *Service) ApplyRound(session *model.Session, round *model.Round) map[int]int {
	applied := make(map[int]int)
	if round == nil {
		return applied
	}
	for playerNumber, delta := range Tally(round.Votes) {
		p := session.GetPlayer(playerNumber)
		if p == nil {
			continue
		}
		p.Score += delta
		applied[playerNumber] = delta
	}
	return applied
}

// Standing is one leaderboard row
type Standing struct {
	Rank         int    `json:"rank"`
	PlayerNumber int    `json:"playerNumber"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
}

// Leaderboard ranks players by score. Ties share a rank and keep join order.
func (s *Service) Leaderboard(players []model.Player) []Standing {
	sorted := append([]model.Player(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	standings := make([]Standing, 0, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		if i > 0 && p.Score == sorted[i-1].Score {
			rank = standings[i-1].Rank
		}
		standings = append(standings, Standing{
			Rank:         rank,
			PlayerNumber: p.PlayerNumber,
			Name:         p.Name,
			Score:        p.Score,
		})
	}
	return standings
}
