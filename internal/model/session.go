package model

import "time"

// SessionCode is a human-shareable identifier for joining sessions
type SessionCode string

// GameMode selects the ruleset a session plays with
type GameMode string

const (
	GameModeDefault GameMode = "default"
)

// Valid reports whether the mode is supported
func (m GameMode) Valid() bool {
	return m == GameModeDefault
}

// Session is one instance of the game. It owns its players and rounds.
type Session struct {
	Code      SessionCode `json:"sessionCode"`
	CreatedAt time.Time   `json:"timestamp"`
	Players   []Player    `json:"players"`
	Mode      GameMode    `json:"mode"`
	Gamestate Gamestate   `json:"gamestate"`
}

// Gamestate tracks round progress. ActiveRound and RoundPhase are nil before the game starts.
type Gamestate struct {
	ActiveRound *int        `json:"activeRound"`
	RoundPhase  *RoundPhase `json:"roundPhase"`
	Rounds      []Round     `json:"rounds"`
	UsedTasks   []string    `json:"usedTasks"`
}

// Started reports whether round 0 has been created
func (g *Gamestate) Started() bool {
	return g.ActiveRound != nil
}

// Phase returns the current phase and whether one is set
func (g *Gamestate) Phase() (RoundPhase, bool) {
	if g.ActiveRound == nil || g.RoundPhase == nil {
		return 0, false
	}
	return *g.RoundPhase, true
}

// InPhase reports whether the game is running and currently in phase p
func (g *Gamestate) InPhase(p RoundPhase) bool {
	current, ok := g.Phase()
	return ok && current == p
}

// SetPhase sets the round phase
func (g *Gamestate) SetPhase(p RoundPhase) {
	g.RoundPhase = &p
}

// SetActiveRound sets the active round index
func (g *Gamestate) SetActiveRound(i int) {
	g.ActiveRound = &i
}

// CurrentRound returns the active round, or nil if the game has not started
func (g *Gamestate) CurrentRound() *Round {
	if g.ActiveRound == nil {
		return nil
	}
	idx := *g.ActiveRound
	if idx < 0 || idx >= len(g.Rounds) {
		return nil
	}
	return &g.Rounds[idx]
}

// Player is a participant in exactly one session
type Player struct {
	PlayerNumber int    `json:"playerNumber"`
	Name         string `json:"name"`
	IsHost       bool   `json:"isHost"`
	IsConnected  bool   `json:"isConnected"`
	Score        int    `json:"score"`
}

// GetPlayer returns the player with the given number, or nil if not found
func (s *Session) GetPlayer(number int) *Player {
	for i := range s.Players {
		if s.Players[i].PlayerNumber == number {
			return &s.Players[i]
		}
	}
	return nil
}

// NextPlayerNumber returns max existing player number + 1, starting at 1
func (s *Session) NextPlayerNumber() int {
	highest := 0
	for _, p := range s.Players {
		if p.PlayerNumber > highest {
			highest = p.PlayerNumber
		}
	}
	return highest + 1
}

// AddPlayer appends a new player with the next free number and returns it
func (s *Session) AddPlayer(name string, isHost bool) Player {
	p := Player{
		PlayerNumber: s.NextPlayerNumber(),
		Name:         name,
		IsHost:       isHost,
	}
	s.Players = append(s.Players, p)
	return p
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Players = cloneSlice(s.Players)
	c.Gamestate = s.Gamestate.clone()
	return &c
}

func (g Gamestate) clone() Gamestate {
	c := Gamestate{
		UsedTasks: cloneSlice(g.UsedTasks),
	}
	if g.ActiveRound != nil {
		c.SetActiveRound(*g.ActiveRound)
	}
	if g.RoundPhase != nil {
		c.SetPhase(*g.RoundPhase)
	}
	if g.Rounds != nil {
		c.Rounds = make([]Round, len(g.Rounds))
		for i, r := range g.Rounds {
			c.Rounds[i] = r.clone()
		}
	}
	return c
}
