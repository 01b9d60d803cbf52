package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/random"
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage"
)

// File is the on-disk shape of a task pool
type File struct {
	Tasks []model.Task `yaml:"tasks"`
}

// Service draws round tasks from the pool held in storage
type Service struct {
	storage storage.Storage
	random  random.Random
	logger  *slog.Logger
}

// New creates a new task Service
func New(storage storage.Storage, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		random:  random,
		logger:  logger.With(slog.String("component", "tasks")),
	}
}

// LoadFromFile reads a YAML task pool and replaces the stored pool with it
func (s *Service) LoadFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read task file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse task file: %w", err)
	}

	if err := s.LoadTasks(ctx, file.Tasks); err != nil {
		return 0, err
	}
	return len(file.Tasks), nil
}

// LoadTasks replaces the stored pool. Tasks without an ID get one from their position.
func (s *Service) LoadTasks(ctx context.Context, pool []model.Task) error {
	normalized := make([]model.Task, 0, len(pool))
	for i, task := range pool {
		task.Description = strings.TrimSpace(task.Description)
		if task.Description == "" {
			return fmt.Errorf("task %d: description is required", i)
		}
		if task.ID == "" {
			task.ID = fmt.Sprintf("task-%d", i+1)
		}
		normalized = append(normalized, task)
	}

	if err := s.storage.SaveTasks(ctx, normalized); err != nil {
		return err
	}

	s.logger.Info("task pool loaded", slog.Int("count", len(normalized)))
	return nil
}

// SeedDefaults stores the built-in pool when the stored pool is empty
func (s *Service) SeedDefaults(ctx context.Context) error {
	pool, err := s.storage.GetTasks(ctx)
	if err != nil {
		return err
	}
	if len(pool) > 0 {
		return nil
	}
	return s.LoadTasks(ctx, DefaultPool())
}

// Draw picks a random task for mode that is not in used and returns it with
// the updated used list. Once every task was used the list starts over. An
// empty pool yields the fallback task and never fails.
func (s *Service) Draw(ctx context.Context, mode model.GameMode, used []string) (model.Task, []string, error) {
	pool, err := s.storage.GetTasks(ctx)
	if err != nil {
		return model.Task{}, used, err
	}

	var available []model.Task
	for _, task := range pool {
		if task.AvailableIn(mode) {
			available = append(available, task)
		}
	}

	remaining := unused(available, used)
	if len(remaining) == 0 {
		used = []string{}
		remaining = available
	}

	if len(remaining) == 0 {
		s.logger.Warn("task pool empty, using fallback", slog.String("mode", string(mode)))
		return model.FallbackTask(), used, nil
	}

	task := remaining[s.random.Intn(len(remaining))]
	next := append(append([]string(nil), used...), task.ID)
	return task, next, nil
}

func unused(pool []model.Task, used []string) []model.Task {
	seen := make(map[string]struct{}, len(used))
	for _, id := range used {
		seen[id] = struct{}{}
	}
	var out []model.Task
	for _, task := range pool {
		if _, ok := seen[task.ID]; !ok {
			out = append(out, task)
		}
	}
	return out
}
