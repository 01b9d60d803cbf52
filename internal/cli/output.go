package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itsinfi/prompt-with-friends-backend/internal/api/response"
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.SessionWithPlayer:
		o.printSession(v.Session)
		if v.Player != nil {
			fmt.Fprintf(o.w, "You: #%d %s\n", v.Player.PlayerNumber, v.Player.Name)
		}
	case response.Session:
		o.printSession(v.Session)
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		o.printJSON(data)
	}
}

func (o *Output) printSession(s *model.Session) {
	if s == nil {
		return
	}
	fmt.Fprintf(o.w, "Session: %s\n", s.Code)
	fmt.Fprintf(o.w, "Mode: %s\n", s.Mode)

	if s.Gamestate.ActiveRound != nil && s.Gamestate.RoundPhase != nil {
		fmt.Fprintf(o.w, "Round: %d (%s)\n", *s.Gamestate.ActiveRound, *s.Gamestate.RoundPhase)
	} else {
		fmt.Fprintln(o.w, "Round: not started")
	}

	fmt.Fprintf(o.w, "Players (%d):\n", len(s.Players))
	for _, p := range s.Players {
		var flags string
		if p.IsHost {
			flags += " [host]"
		}
		if !p.IsConnected {
			flags += " [offline]"
		}
		fmt.Fprintf(o.w, "  #%d %s score=%d%s\n", p.PlayerNumber, p.Name, p.Score, flags)
	}
}
