// Package config loads the engine's process-level settings: nothing here
// is the opaque per-project Config contract the engine's tool/task layer
// consumes (internal/engine/contract), which is supplied by whatever
// application embeds the engine. This package only covers the engine's
// own operational knobs — storage DSNs, cache backend selection, worker
// pool sizing — following the teacher's envdecode/godotenv idiom.
package config

import (
	"fmt"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// RunsStorageConfig selects and configures the runs.Storage backend.
type RunsStorageConfig struct {
	Driver          string `env:"RUNS_STORAGE_DRIVER"`
	DSN             string `env:"RUNS_STORAGE_DSN"`
	MaxOpenConns    int    `env:"RUNS_STORAGE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `env:"RUNS_STORAGE_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `env:"RUNS_STORAGE_CONN_MAX_LIFETIME_SECONDS"`
}

// CacheConfig selects and configures the executable.CacheStorage backend.
type CacheConfig struct {
	Driver        string `env:"CACHE_DRIVER"`
	RedisAddr     string `env:"CACHE_REDIS_ADDR"`
	RedisPassword string `env:"CACHE_REDIS_PASSWORD"`
	RedisDB       int    `env:"CACHE_REDIS_DB"`
	TTLSeconds    int    `env:"CACHE_TTL_SECONDS"`
}

// SecretsConfig selects and configures the contract.SecretsManager backend.
type SecretsConfig struct {
	Driver       string `env:"SECRETS_DRIVER"`
	KeyVaultURL  string `env:"SECRETS_KEYVAULT_URL"`
}

// WorkerConfig tunes the engine's concurrency surfaces: Executable.Concurrency
// pool sizes and the event bus's channel buffering (4.A/4.D).
type WorkerConfig struct {
	DefaultPoolSize   int `env:"WORKER_DEFAULT_POOL_SIZE"`
	EventBufferSize   int `env:"EVENT_BUFFER_SIZE"`
	RetrievalTopK     int `env:"RETRIEVAL_TOP_K"`
}

// Config is the engine's top-level process configuration.
type Config struct {
	Logging  LoggingConfig     `json:"logging"`
	Runs     RunsStorageConfig `json:"runs"`
	Cache    CacheConfig       `json:"cache"`
	Secrets  SecretsConfig     `json:"secrets"`
	Worker   WorkerConfig      `json:"worker"`
}

// LoggingConfig controls engine-wide logging, mirroring pkg/logger.LoggingConfig
// field-for-field so it can be decoded from the environment and handed
// straight to logger.New.
type LoggingConfig struct {
	Level      string `json:"level" env:"LOG_LEVEL"`
	Format     string `json:"format" env:"LOG_FORMAT"`
	Output     string `json:"output" env:"LOG_OUTPUT"`
	FilePrefix string `json:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// New returns a Config populated with defaults suitable for local/in-memory
// operation: memory-backed runs storage, memory-backed cache, memory-backed
// secrets.
func New() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Runs: RunsStorageConfig{
			Driver:          "memory",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTLSeconds: 3600,
		},
		Secrets: SecretsConfig{
			Driver: "memory",
		},
		Worker: WorkerConfig{
			DefaultPoolSize: 4,
			EventBufferSize: 256,
			RetrievalTopK:   5,
		},
	}
}

// Load loads configuration from a ".env" file (if present) and the process
// environment, overlaying it onto the defaults from New.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()
	if err := envdecode.Decode(cfg); err != nil {
		// envdecode errors out when none of the tagged fields are present
		// in the environment; treat that as "no overrides" so the engine
		// still starts using its in-memory defaults.
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}
	return cfg, nil
}
