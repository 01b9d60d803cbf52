// Package sqlite provides a SQLite-backed session store for single-node
// deployments that need sessions to survive a restart.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage/sqlite/migrations"
)

// Storage persists sessions as JSON documents keyed by session code
type Storage struct {
	db *sql.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Open opens the database at path and applies embedded migrations
func Open(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps SQLITE_BUSY out of the hot path
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database handle
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: sqlite %s: %w", model.ErrPersistence, op, err)
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (code, created_at, data) VALUES (?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET data = excluded.data`,
		string(session.Code), session.CreatedAt.UTC().UnixMilli(), data,
	)
	if err != nil {
		return persistenceErr("save session", err)
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE code = ?`, string(code)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, persistenceErr("get session", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, persistenceErr("decode session", err)
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, code model.SessionCode) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE code = ?`, string(code)); err != nil {
		return persistenceErr("delete session", err)
	}
	return nil
}

func (s *Storage) SessionExists(ctx context.Context, code model.SessionCode) (bool, error) {
	var found int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE code = ?`, string(code)).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, persistenceErr("exists", err)
	}
	return true, nil
}

func (s *Storage) DeleteSessionsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE created_at < ?`, cutoff.UTC().UnixMilli())
	if err != nil {
		return 0, persistenceErr("delete expired sessions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistenceErr("delete expired sessions", err)
	}
	return int(n), nil
}

// Task operations

func (s *Storage) GetTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, mode, description, tips FROM tasks ORDER BY position`)
	if err != nil {
		return nil, persistenceErr("get tasks", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var (
			task model.Task
			mode string
			tips string
		)
		if err := rows.Scan(&task.ID, &mode, &task.Description, &tips); err != nil {
			return nil, persistenceErr("scan task", err)
		}
		if err := json.Unmarshal([]byte(tips), &task.Tips); err != nil {
			return nil, persistenceErr("decode task tips", err)
		}
		task.Mode = model.GameMode(mode)
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("get tasks", err)
	}
	return tasks, nil
}

func (s *Storage) SaveTasks(ctx context.Context, tasks []model.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceErr("begin save tasks", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return persistenceErr("clear tasks", err)
	}
	for i, task := range tasks {
		tips := task.Tips
		if tips == nil {
			tips = []string{}
		}
		encoded, err := json.Marshal(tips)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (position, id, mode, description, tips) VALUES (?, ?, ?, ?, ?)`,
			i, task.ID, string(task.Mode), task.Description, string(encoded),
		); err != nil {
			return persistenceErr("insert task", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return persistenceErr("commit tasks", err)
	}
	return nil
}
