package model

import "errors"

// Common errors used across the application
var (
	// NotFound
	ErrSessionNotFound = errors.New("session not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrRoundNotFound   = errors.New("round not found")

	// Conflict
	ErrDuplicateInit   = errors.New("a round already exists for this session")
	ErrUnsupportedMode = errors.New("game mode not supported")

	// OffPhase
	ErrOffPhase   = errors.New("action not allowed in the current phase")
	ErrLateResult = errors.New("result arrived after the prompting phase ended")

	// UpstreamFailure
	ErrUpstreamFailure = errors.New("prompt generation failed")

	// PersistenceFailure
	ErrPersistence = errors.New("persistence failure")

	// Validation
	ErrInvalidPrompt = errors.New("prompt must not be empty")
)

// ErrorKind classifies errors for transport mapping
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindOffPhase
	KindUpstream
	KindPersistence
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindOffPhase:
		return "off_phase"
	case KindUpstream:
		return "upstream_failure"
	case KindPersistence:
		return "persistence_failure"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// KindOf returns the taxonomy kind of err
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrPlayerNotFound), errors.Is(err, ErrRoundNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateInit), errors.Is(err, ErrUnsupportedMode):
		return KindConflict
	case errors.Is(err, ErrOffPhase), errors.Is(err, ErrLateResult):
		return KindOffPhase
	case errors.Is(err, ErrUpstreamFailure):
		return KindUpstream
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	case errors.Is(err, ErrInvalidPrompt):
		return KindValidation
	default:
		return KindInternal
	}
}
