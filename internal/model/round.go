package model

import (
	"fmt"
	"sort"
	"time"
)

// RoundPhase is the sub-stage of a round
type RoundPhase int

const (
	PhasePrompting   RoundPhase = 0
	PhaseVoting      RoundPhase = 1
	PhaseLeaderboard RoundPhase = 2
)

func (p RoundPhase) String() string {
	switch p {
	case PhasePrompting:
		return "prompting"
	case PhaseVoting:
		return "voting"
	case PhaseLeaderboard:
		return "leaderboard"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Round is one cycle of prompting, voting and scoring
type Round struct {
	CreatedAt time.Time `json:"timestamp"`
	Task      Task      `json:"task"`
	Results   []Result  `json:"results"`
	Votes     []Vote    `json:"votes"`
}

// Result is a player's generated output for a round
type Result struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"timestamp"`
	Prompt       string    `json:"prompt"`
	PlayerNumber int       `json:"playerNumber"`
	Result       string    `json:"result"`
}

// Vote records which player a voter picked. At most one per voter per round.
type Vote struct {
	Voter int `json:"voter"`
	Voted int `json:"voted"`
}

// Task is the challenge shown to players for a round. An empty Mode makes it
// eligible in every game mode.
type Task struct {
	ID          string   `json:"id,omitempty" yaml:"id"`
	Mode        GameMode `json:"mode,omitempty" yaml:"mode"`
	Description string   `json:"description" yaml:"description"`
	Tips        []string `json:"tips" yaml:"tips"`
}

// AvailableIn reports whether the task can be drawn in the given mode
func (t Task) AvailableIn(mode GameMode) bool {
	return t.Mode == "" || t.Mode == mode
}

// FallbackTask is used when the task pool is empty
func FallbackTask() Task {
	return Task{
		Description: "Default fallback task",
		Tips:        []string{"No specific tips available"},
	}
}

// UpsertVote overwrites the voter's existing vote or appends a new one
func (r *Round) UpsertVote(voter, voted int) {
	for i := range r.Votes {
		if r.Votes[i].Voter == voter {
			r.Votes[i].Voted = voted
			return
		}
	}
	r.Votes = append(r.Votes, Vote{Voter: voter, Voted: voted})
}

// PlayerResult pairs a player number with their most recent result, if any
type PlayerResult struct {
	PlayerNumber int     `json:"playerNumber"`
	Result       *Result `json:"result"`
}

// LatestResults returns the most recent result of each player, in player order
func (r *Round) LatestResults(players []Player) []PlayerResult {
	latest := make([]PlayerResult, 0, len(players))
	for _, p := range players {
		var found []Result
		for _, res := range r.Results {
			if res.PlayerNumber == p.PlayerNumber {
				found = append(found, res)
			}
		}
		entry := PlayerResult{PlayerNumber: p.PlayerNumber}
		if len(found) > 0 {
			sort.SliceStable(found, func(i, j int) bool {
				return found[i].CreatedAt.After(found[j].CreatedAt)
			})
			res := found[0]
			entry.Result = &res
		}
		latest = append(latest, entry)
	}
	return latest
}

func (r Round) clone() Round {
	c := r
	c.Task.Tips = cloneSlice(r.Task.Tips)
	c.Results = cloneSlice(r.Results)
	c.Votes = cloneSlice(r.Votes)
	return c
}

// cloneSlice copies s. A nil slice stays nil and an empty one stays empty, so
// snapshots marshal the same before and after a copy.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	c := make([]T, len(s))
	copy(c, s)
	return c
}
