package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsinfi/prompt-with-friends-backend/internal/api/response"
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

func TestParseSSE(t *testing.T) {
	stream := "event: connected\ndata: {\"status\":\"connected\"}\n\n" +
		": keepalive\n\n" +
		"event: timer\ndata: {\"time\":3}\n\n" +
		"event: partial\ndata: never terminated\n"

	type got struct{ event, data string }
	var events []got
	err := parseSSE(strings.NewReader(stream), func(event, data string) {
		events = append(events, got{event, data})
	})
	require.NoError(t, err)

	assert.Equal(t, []got{
		{"connected", `{"status":"connected"}`},
		{"timer", `{"time":3}`},
	}, events)
}

func TestOutputText(t *testing.T) {
	round := 1
	phase := model.PhaseVoting
	session := &model.Session{
		Code: "AB12CD",
		Mode: model.GameModeDefault,
		Players: []model.Player{
			{PlayerNumber: 1, Name: "Alice", IsHost: true, IsConnected: true, Score: 2},
			{PlayerNumber: 2, Name: "Bob"},
		},
		Gamestate: model.Gamestate{ActiveRound: &round, RoundPhase: &phase},
	}

	var buf bytes.Buffer
	NewOutput("text", &buf).Print(response.Session{Session: session})

	out := buf.String()
	assert.Contains(t, out, "Session: AB12CD")
	assert.Contains(t, out, "Round: 1 (voting)")
	assert.Contains(t, out, "#1 Alice score=2 [host]")
	assert.Contains(t, out, "#2 Bob score=0 [offline]")
}

func TestOutputJSONFallback(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("text", &buf).Print(map[string]int{"n": 1})
	assert.JSONEq(t, `{"n":1}`, buf.String())
}
