package storage

import (
	"context"
	"time"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

// Storage defines the interface for data persistence.
// GetSession returns a copy the caller may mutate freely. Writes go through SaveSession.
type Storage interface {
	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error)
	DeleteSession(ctx context.Context, code model.SessionCode) error
	SessionExists(ctx context.Context, code model.SessionCode) (bool, error)

	// DeleteSessionsOlderThan removes sessions created before cutoff and returns how many were removed
	DeleteSessionsOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Task pool operations
	GetTasks(ctx context.Context) ([]model.Task, error)
	SaveTasks(ctx context.Context, tasks []model.Task) error
}

// SessionUpdater is implemented by stores shared between processes. UpdateSession
// applies fn to the stored session and saves it only if no other writer touched
// the record in between, calling fn again on a fresh copy after a conflict.
type SessionUpdater interface {
	UpdateSession(ctx context.Context, code model.SessionCode, fn func(*model.Session) error) (*model.Session, error)
}
