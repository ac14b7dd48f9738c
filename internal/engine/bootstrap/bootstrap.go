// Package bootstrap assembles the engine's storage-backed components
// (runs.Storage, a CacheStorage, a contract.SecretsManager) from
// pkg/config, so the embedding application can go from a Config to a
// running engine without hand-wiring each backend's constructor itself.
package bootstrap

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/go-redis/redis/v8"

	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/executable"
	"github.com/r3e-network/oxy-engine/internal/engine/runs"
	"github.com/r3e-network/oxy-engine/internal/engine/secrets"
	"github.com/r3e-network/oxy-engine/pkg/config"
)

// NewRunsStorage builds a runs.Storage from cfg: "postgres" opens a
// connection pool, applies pending migrations, and wraps it in
// runs.PostgresStorage; anything else (including the empty driver)
// falls back to runs.MemoryStorage. The returned close func releases
// any underlying connection pool and is always safe to call.
func NewRunsStorage(cfg config.RunsStorageConfig) (runs.Storage, func() error, error) {
	if cfg.Driver != "postgres" {
		return runs.NewMemoryStorage(), func() error { return nil }, nil
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres runs storage: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := runs.Migrate(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate runs storage: %w", err)
	}

	return runs.NewPostgresStorage(db), db.Close, nil
}

// NewSecretsManager builds a contract.SecretsManager from cfg: "keyvault"
// authenticates against Azure Key Vault; anything else falls back to an
// empty in-memory manager.
func NewSecretsManager(cfg config.SecretsConfig) (contract.SecretsManager, error) {
	if cfg.Driver != "keyvault" {
		return secrets.NewMemoryManager(nil), nil
	}
	return secrets.NewKeyVaultManager(cfg.KeyVaultURL)
}

// NewCacheStorage builds an executable.CacheStorage[I, R] from cfg:
// "redis" dials the configured go-redis client; anything else falls back
// to an in-process TTL map. keyOf must be supplied by the caller since it
// is specific to the (input, response) pair being cached.
func NewCacheStorage[I, R any](cfg config.CacheConfig, keyOf executable.KeyFunc[I]) executable.CacheStorage[I, R] {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if cfg.Driver != "redis" {
		return executable.NewMemoryCacheStorage[I, R](keyOf, ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return executable.NewRedisCacheStorage[I, R](client, "oxy-engine:cache:", keyOf, ttl)
}
