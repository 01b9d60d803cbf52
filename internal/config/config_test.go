package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Hour, cfg.GCInterval)
	assert.Equal(t, 60, cfg.TimerPrompting)
	assert.Equal(t, 30, cfg.TimerVoting)
	assert.Equal(t, 15, cfg.TimerLeaderboard)
	assert.True(t, cfg.AutoStartRounds)
	assert.Equal(t, ProviderEcho, cfg.AIProvider)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestParseReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_TYPE", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("TIMER_PROMPTING", "5")
	t.Setenv("AUTO_START_ROUNDS", "false")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "redis://cache:6379", cfg.RedisURL)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.TimerPrompting)
	assert.False(t, cfg.AutoStartRounds)
}

func TestParseRejectsBadValues(t *testing.T) {
	t.Setenv("PORT", "eighty")
	_, err := Parse()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Parse()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"redis without url", func(c *Config) { c.StorageType = StorageRedis }, "REDIS_URL"},
		{"sqlite without path", func(c *Config) { c.StorageType = StorageSQLite; c.SQLitePath = "" }, "SQLITE_PATH"},
		{"unknown storage", func(c *Config) { c.StorageType = "postgres" }, "STORAGE_TYPE"},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, "SESSION_TTL"},
		{"negative interval", func(c *Config) { c.GCInterval = -time.Second }, "GC_INTERVAL"},
		{"zero timer", func(c *Config) { c.TimerVoting = 0 }, "timers"},
		{"openai without key", func(c *Config) { c.AIProvider = ProviderOpenAI }, "OPENAI_API_KEY"},
		{"unknown provider", func(c *Config) { c.AIProvider = "bard" }, "AI_PROVIDER"},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "PORT"},
		{"nats without shared store", func(c *Config) { c.NATSURL = "nats://localhost:4222" }, "NATS_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAcceptsNATSWithRedis(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)
	cfg.StorageType = StorageRedis
	cfg.RedisURL = "redis://localhost:6379"
	cfg.NATSURL = "nats://localhost:4222"
	assert.NoError(t, cfg.Validate())
}

func TestLevel(t *testing.T) {
	cfg := Config{LogLevel: "debug"}
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TIMER_VOTING=12\n"), 0o600))
	t.Setenv("TIMER_VOTING", "")
	os.Unsetenv("TIMER_VOTING")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.TimerVoting)
}

func TestLoadWithoutEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
