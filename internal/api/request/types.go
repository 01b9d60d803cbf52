package request

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	Name string `json:"name,omitempty"`
	Mode string `json:"mode,omitempty"`
}

// JoinSessionRequest is the request body for joining a session
type JoinSessionRequest struct {
	Name string `json:"name,omitempty"`
}

// LegacyCreateRequest is the body of POST /session/create
type LegacyCreateRequest struct {
	Name string `json:"name"`
}

// LegacyJoinRequest is the body of POST /session/join
type LegacyJoinRequest struct {
	SessionCode string `json:"sessionCode"`
	PlayerName  string `json:"playerName"`
}
