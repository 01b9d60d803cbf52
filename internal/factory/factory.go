package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/itsinfi/prompt-with-friends-backend/internal/ai"
	"github.com/itsinfi/prompt-with-friends-backend/internal/ai/echo"
	"github.com/itsinfi/prompt-with-friends-backend/internal/ai/ollama"
	"github.com/itsinfi/prompt-with-friends-backend/internal/ai/openai"
	"github.com/itsinfi/prompt-with-friends-backend/internal/config"
	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/clock"
	"github.com/itsinfi/prompt-with-friends-backend/internal/dependencies/random"
	"github.com/itsinfi/prompt-with-friends-backend/internal/realtime"
	"github.com/itsinfi/prompt-with-friends-backend/internal/realtime/natsrelay"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/game"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/scoring"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/session"
	"github.com/itsinfi/prompt-with-friends-backend/internal/services/tasks"
	"github.com/itsinfi/prompt-with-friends-backend/internal/socket"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage/memory"
	redisstorage "github.com/itsinfi/prompt-with-friends-backend/internal/storage/redis"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage/sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock    clock.Clock
	Random   random.Random
	Provider ai.Provider

	// Services
	SessionController *session.Controller
	TaskService       *tasks.Service
	ScoringService    *scoring.Service
	GameController    *game.Controller
	Scheduler         *game.Scheduler
	Collector         *session.Collector

	// Real-time
	Gateway *realtime.Gateway
	Sockets *socket.Manager

	closers []io.Closer
}

// Options are the settings newWithDependencies needs beyond its collaborators
type Options struct {
	Scheduler  game.SchedulerConfig
	SessionTTL time.Duration
	GCInterval time.Duration
}

// New creates a new application with all dependencies wired from cfg
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	backend, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	app, err := newWithDependencies(backend.store, clock.New(), random.New(), newProvider(cfg), Options{
		Scheduler: game.SchedulerConfig{
			Timers: game.Timers{
				Prompting:   cfg.TimerPrompting,
				Voting:      cfg.TimerVoting,
				Leaderboard: cfg.TimerLeaderboard,
			},
			Tick:      time.Second,
			AutoStart: cfg.AutoStartRounds,
			Lease:     backend.lease,
		},
		SessionTTL: cfg.SessionTTL,
		GCInterval: cfg.GCInterval,
	}, logger)
	if err != nil {
		closeQuietly(backend.closer)
		return nil, err
	}
	if backend.closer != nil {
		app.closers = append(app.closers, backend.closer)
	}

	if cfg.NATSURL != "" {
		conn, err := natsrelay.Connect(cfg.NATSURL, logger)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		app.closers = append(app.closers, closerFunc(func() error {
			return conn.Drain()
		}))
		if err := natsrelay.New(conn, logger).Attach(app.Gateway); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("attach nats relay: %w", err)
		}
	}

	if err := app.loadTasks(ctx, cfg.TasksFile); err != nil {
		_ = app.Close()
		return nil, err
	}

	return app, nil
}

// storageBackend is the configured store plus what comes with it
type storageBackend struct {
	store  storage.Storage
	closer io.Closer
	// lease is set for stores that several instances may share
	lease game.ClockLease
}

func newStorage(cfg config.Config) (storageBackend, error) {
	switch cfg.StorageType {
	case "", config.StorageMemory:
		return storageBackend{store: memory.New()}, nil
	case config.StorageRedis:
		if cfg.RedisURL == "" {
			return storageBackend{}, errors.New("REDIS_URL required when STORAGE_TYPE is redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.SessionTTL = cfg.SessionTTL
		store, err := redisstorage.New(redisCfg)
		if err != nil {
			return storageBackend{}, fmt.Errorf("open redis storage: %w", err)
		}
		return storageBackend{
			store:  store,
			closer: store,
			lease:  redisstorage.NewClockLease(store.Client(), uuid.NewString()),
		}, nil
	case config.StorageSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return storageBackend{}, fmt.Errorf("open sqlite storage: %w", err)
		}
		return storageBackend{store: store, closer: store}, nil
	default:
		return storageBackend{}, fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis or sqlite", cfg.StorageType)
	}
}

func newProvider(cfg config.Config) ai.Provider {
	switch cfg.AIProvider {
	case config.ProviderOpenAI:
		return openai.New(openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			MaxRetries: 2,
		})
	case config.ProviderOllama:
		return ollama.New(cfg.OllamaURL, cfg.OllamaModel)
	default:
		return echo.New()
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	provider ai.Provider,
	opts Options,
	logger *slog.Logger,
) (*App, error) {
	sessionController := session.NewController(store, clk, rnd, logger)
	taskService := tasks.New(store, rnd, logger)
	scoringService := scoring.New()
	gateway := realtime.New(sessionController, logger)
	gameController := game.NewController(sessionController, provider, scoringService, clk, logger)
	scheduler := game.NewScheduler(sessionController, taskService, scoringService, gateway, clk, opts.Scheduler, logger)

	collector, err := session.NewCollector(store, clk, opts.GCInterval, opts.SessionTTL, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		Provider:          provider,
		SessionController: sessionController,
		TaskService:       taskService,
		ScoringService:    scoringService,
		GameController:    gameController,
		Scheduler:         scheduler,
		Collector:         collector,
		Gateway:           gateway,
		Sockets:           socket.NewManager(sessionController, gameController, scheduler, gateway, clk, logger),
	}, nil
}

// loadTasks fills the task pool from path, or with the built-in pool when path is empty
func (a *App) loadTasks(ctx context.Context, path string) error {
	if path == "" {
		return a.TaskService.SeedDefaults(ctx)
	}
	if _, err := a.TaskService.LoadFromFile(ctx, path); err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	return nil
}

// Close stops every session clock and releases storage and relay connections
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errs := []error{a.Scheduler.Shutdown(ctx)}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
