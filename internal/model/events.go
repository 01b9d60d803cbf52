package model

// EventType names a real-time event on the wire
type EventType string

const (
	// Client to server
	EventInitRound   EventType = "initRound"
	EventSendPrompt  EventType = "sendPrompt"
	EventReceiveVote EventType = "receiveVote"

	// Server to session group
	EventTimer         EventType = "timer"
	EventUpdateSession EventType = "updateSession"
	EventUpdatePlayers EventType = "updatePlayers"

	// Server to caller
	EventConnectionFeedback EventType = "connectionFeedback"
	EventError              EventType = "error"
)

// TimerPayload is sent once per tick
type TimerPayload struct {
	Time int `json:"time"`
}

// SessionPayload carries a full session snapshot
type SessionPayload struct {
	Session *Session `json:"session"`
}

// PlayersPayload carries only the player list
type PlayersPayload struct {
	Players []Player `json:"players"`
}

// ConnectionFeedbackPayload is the private snapshot sent after a successful handshake
type ConnectionFeedbackPayload struct {
	Session *Session `json:"session"`
	Player  *Player  `json:"player"`
	Players []Player `json:"players"`
}

// PromptOutcome is the data returned to the submitter of an accepted prompt
type PromptOutcome struct {
	Result  string `json:"result"`
	Prompt  string `json:"prompt"`
	Creator int    `json:"creator"`
}

// PromptReply answers a sendPrompt request. Exactly one of Result or Alert is set.
type PromptReply struct {
	Timestamp string         `json:"timestamp"`
	Result    *PromptOutcome `json:"result,omitempty"`
	Alert     string         `json:"alert,omitempty"`
}

// ErrorPayload is sent with the error event
type ErrorPayload struct {
	Message string `json:"message"`
}

// SendPromptRequest is the inbound sendPrompt payload
type SendPromptRequest struct {
	Prompt string `json:"prompt"`
}

// ReceiveVoteRequest is the inbound receiveVote payload
type ReceiveVoteRequest struct {
	Voted int `json:"voted"`
}

// Alert texts shown to players for rejected prompts
const (
	AlertOffPhasePrompt = "Prompts can only be submitted during the prompting phase."
	AlertLateResult     = "Your result came back too late. Please submit prompts in time so they can be included in the voting phase."
	AlertEmptyPrompt    = "Please enter a prompt before submitting."
	AlertGenerationFail = "Your prompt could not be processed. Please try again."
)
