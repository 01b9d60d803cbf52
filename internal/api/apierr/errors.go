package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeRoundNotFound      = "ROUND_NOT_FOUND"
	CodeRoundExists        = "ROUND_EXISTS"
	CodeUnsupportedMode    = "UNSUPPORTED_MODE"
	CodeWrongPhase         = "WRONG_PHASE"
	CodeInvalidPrompt      = "INVALID_PROMPT"
	CodeGenerationFailed   = "GENERATION_FAILED"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrRoundNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoundNotFound, "Round not found"}}
	case errors.Is(err, model.ErrDuplicateInit):
		return &httpError{http.StatusConflict, APIError{CodeRoundExists, "A round already exists for this session"}}
	case errors.Is(err, model.ErrUnsupportedMode):
		return &httpError{http.StatusConflict, APIError{CodeUnsupportedMode, "Game mode not supported"}}
	case errors.Is(err, model.ErrLateResult):
		return &httpError{http.StatusConflict, APIError{CodeWrongPhase, model.AlertLateResult}}
	case errors.Is(err, model.ErrOffPhase):
		return &httpError{http.StatusConflict, APIError{CodeWrongPhase, "Action not allowed in the current phase"}}
	case errors.Is(err, model.ErrInvalidPrompt):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPrompt, model.AlertEmptyPrompt}}
	}

	// Anything else falls back to its taxonomy kind
	switch model.KindOf(err) {
	case model.KindUpstream:
		return &httpError{http.StatusBadGateway, APIError{CodeGenerationFailed, "Prompt generation failed"}}
	case model.KindPersistence:
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStorageUnavailable, "Storage unavailable"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
