// Package config reads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Generation providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderEcho   = "echo"
)

// Log formats
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config holds every server setting
type Config struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8080"`

	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/pwf.db"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	GCInterval time.Duration `env:"GC_INTERVAL" envDefault:"1h"`

	// Phase lengths in seconds
	TimerPrompting   int  `env:"TIMER_PROMPTING" envDefault:"60"`
	TimerVoting      int  `env:"TIMER_VOTING" envDefault:"30"`
	TimerLeaderboard int  `env:"TIMER_LEADERBOARD" envDefault:"15"`
	AutoStartRounds  bool `env:"AUTO_START_ROUNDS" envDefault:"true"`

	AIProvider    string `env:"AI_PROVIDER" envDefault:"echo"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OllamaURL     string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel   string `env:"OLLAMA_MODEL" envDefault:"llama3.2"`

	FrontendOrigin string `env:"FRONTEND_ORIGIN" envDefault:"http://localhost:3000"`
	NATSURL        string `env:"NATS_URL"`
	TasksFile      string `env:"TASKS_FILE"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then parses the environment
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return Parse()
}

// Parse reads the environment into a Config and validates it
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the rules that span more than one field
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required when STORAGE_TYPE=redis"))
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH required when STORAGE_TYPE=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_TYPE %q", c.StorageType))
	}

	// Instances linked by NATS must share session state and clock leases
	if c.NATSURL != "" && c.StorageType != StorageRedis {
		errs = append(errs, errors.New("NATS_URL requires STORAGE_TYPE=redis"))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.GCInterval <= 0 {
		errs = append(errs, errors.New("GC_INTERVAL must be positive"))
	}
	if c.TimerPrompting <= 0 || c.TimerVoting <= 0 || c.TimerLeaderboard <= 0 {
		errs = append(errs, errors.New("phase timers must be positive"))
	}

	switch c.AIProvider {
	case ProviderEcho, ProviderOllama:
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY required when AI_PROVIDER=openai"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AI_PROVIDER %q", c.AIProvider))
	}

	if c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatText {
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Level returns LOG_LEVEL as a slog level
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}
