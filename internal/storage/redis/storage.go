package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage"
)

// ErrTooManyConflicts is returned when concurrent writers keep invalidating an update
var ErrTooManyConflicts = errors.New("session changed concurrently too many times")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)
	cfg = cfg.withDefaults()

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg.withDefaults(),
	}
}

// Client returns the underlying Redis client
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interfaces
var (
	_ storage.Storage        = (*Storage)(nil)
	_ storage.SessionUpdater = (*Storage)(nil)
)

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: redis %s: %w", model.ErrPersistence, op, err)
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.Code), data, s.cfg.SessionTTL)
	pipe.ZAdd(ctx, sessionsByCreationKey(), redis.Z{
		Score:  float64(session.CreatedAt.UnixMilli()),
		Member: string(session.Code),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return persistenceErr("save session", err)
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	return getSession(ctx, s.client, code)
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// getSession reads through c, which is either the client or a WATCH transaction
func getSession(ctx context.Context, c getter, code model.SessionCode) (*model.Session, error) {
	data, err := c.Get(ctx, sessionKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, persistenceErr("get session", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, persistenceErr("decode session", err)
	}
	return &session, nil
}

// UpdateSession runs fn inside WATCH/MULTI on the session key. A write by
// another client between the read and EXEC aborts the transaction and fn runs
// again on the newer record, up to MaxUpdateRetries times.
func (s *Storage) UpdateSession(ctx context.Context, code model.SessionCode, fn func(*model.Session) error) (*model.Session, error) {
	key := sessionKey(code)

	for attempt := 0; attempt < s.cfg.MaxUpdateRetries; attempt++ {
		var updated *model.Session
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			session, err := getSession(ctx, tx, code)
			if err != nil {
				return err
			}
			if err := fn(session); err != nil {
				return err
			}

			data, err := json.Marshal(session)
			if err != nil {
				return persistenceErr("encode session", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, s.cfg.SessionTTL)
				pipe.ZAdd(ctx, sessionsByCreationKey(), redis.Z{
					Score:  float64(session.CreatedAt.UnixMilli()),
					Member: string(session.Code),
				})
				return nil
			})
			if err != nil {
				if errors.Is(err, redis.TxFailedErr) {
					return err
				}
				return persistenceErr("save session", err)
			}
			updated = session
			return nil
		}, key)

		switch {
		case err == nil:
			return updated, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return nil, err
		}
	}
	return nil, persistenceErr("update session", ErrTooManyConflicts)
}

func (s *Storage) DeleteSession(ctx context.Context, code model.SessionCode) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(code))
	pipe.ZRem(ctx, sessionsByCreationKey(), string(code))
	if _, err := pipe.Exec(ctx); err != nil {
		return persistenceErr("delete session", err)
	}
	return nil
}

func (s *Storage) SessionExists(ctx context.Context, code model.SessionCode) (bool, error) {
	exists, err := s.client.Exists(ctx, sessionKey(code)).Result()
	if err != nil {
		return false, persistenceErr("exists", err)
	}
	return exists > 0, nil
}

func (s *Storage) DeleteSessionsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	indexKey := sessionsByCreationKey()

	// Exclusive upper bound: created strictly before cutoff
	codes, err := s.client.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, persistenceErr("scan expired sessions", err)
	}

	if len(codes) == 0 {
		return 0, nil
	}

	// Delete all sessions and their index entries in one pipeline
	pipe := s.client.TxPipeline()
	dels := make([]*redis.IntCmd, 0, len(codes))
	members := make([]interface{}, len(codes))
	for i, code := range codes {
		dels = append(dels, pipe.Del(ctx, sessionKey(model.SessionCode(code))))
		members[i] = code
	}
	pipe.ZRem(ctx, indexKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, persistenceErr("delete expired sessions", err)
	}

	// Sessions whose key already expired are not counted
	deleted := 0
	for _, cmd := range dels {
		deleted += int(cmd.Val())
	}
	return deleted, nil
}

// Task operations

func (s *Storage) GetTasks(ctx context.Context) ([]model.Task, error) {
	data, err := s.client.Get(ctx, tasksKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.Task{}, nil
		}
		return nil, persistenceErr("get tasks", err)
	}

	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, persistenceErr("decode tasks", err)
	}
	return tasks, nil
}

func (s *Storage) SaveTasks(ctx context.Context, tasks []model.Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	// The task pool never expires
	if err := s.client.Set(ctx, tasksKey(), data, 0).Err(); err != nil {
		return persistenceErr("save tasks", err)
	}
	return nil
}
