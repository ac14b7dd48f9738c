package executable

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
)

// RedisCacheStorage is a go-redis/redis-backed CacheStorage (spec §4.D
// Cache, domain stack §11.2), the production counterpart of
// MemoryCacheStorage, used when the embedding application supplies a
// shared cache across engine instances.
type RedisCacheStorage[I, R any] struct {
	client *redis.Client
	keyOf  KeyFunc[I]
	prefix string
	ttl    time.Duration
}

// NewRedisCacheStorage wraps an already-configured *redis.Client.
func NewRedisCacheStorage[I, R any](client *redis.Client, prefix string, keyOf KeyFunc[I], ttl time.Duration) *RedisCacheStorage[I, R] {
	return &RedisCacheStorage[I, R]{client: client, keyOf: keyOf, prefix: prefix, ttl: ttl}
}

func (r *RedisCacheStorage[I, R]) Read(ctx *ectx.ExecutionContext, input I) (R, bool, error) {
	var zero R
	raw, err := r.client.Get(context.Background(), r.prefix+r.keyOf(input)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, enginerr.Wrap(enginerr.IOError, "reading cache entry from redis", err)
	}

	var value R
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false, enginerr.Wrap(enginerr.SerializerError, "decoding cached value", err)
	}
	return value, true, nil
}

func (r *RedisCacheStorage[I, R]) Write(ctx *ectx.ExecutionContext, input I, response R) error {
	raw, err := json.Marshal(response)
	if err != nil {
		return enginerr.Wrap(enginerr.SerializerError, "encoding value for cache", err)
	}
	if err := r.client.Set(context.Background(), r.prefix+r.keyOf(input), raw, r.ttl).Err(); err != nil {
		return enginerr.Wrap(enginerr.IOError, "writing cache entry to redis", err)
	}
	return nil
}
