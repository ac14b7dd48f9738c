package executable

import (
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
)

// CacheStorage is the key-value contract a Cache wrapper reads from and
// writes to. Implementations range from an in-process map to a
// go-redis/redis-backed store (spec §4.D Cache, domain stack §11).
type CacheStorage[I, R any] interface {
	Read(ctx *ectx.ExecutionContext, input I) (R, bool, error)
	Write(ctx *ectx.ExecutionContext, input I, response R) error
}

// Cache short-circuits an inner Executable when storage already holds a
// response for the given input, emitting a Message event in place of
// running the inner work, and persists fresh results for next time.
type Cache[I, R any] struct {
	inner   Executable[I, R]
	storage CacheStorage[I, R]
}

// NewCache composes a Cache wrapper around inner.
func NewCache[I, R any](inner Executable[I, R], storage CacheStorage[I, R]) *Cache[I, R] {
	return &Cache[I, R]{inner: inner, storage: storage}
}

// NewCacheWrap creates a Cache with no inner set, for use with Builder.With
// (which supplies inner via Wrap).
func NewCacheWrap[I, R any](storage CacheStorage[I, R]) *Cache[I, R] {
	return &Cache[I, R]{storage: storage}
}

// Wrap implements the Wrap[I, R] protocol so Cache can be composed via
// Builder.
func (c *Cache[I, R]) Wrap(inner Executable[I, R]) Executable[I, R] {
	c.inner = inner
	return c
}

// Execute reads storage before delegating; a cache hit short-circuits
// the inner Executable entirely.
func (c *Cache[I, R]) Execute(ctx *ectx.ExecutionContext, input I) (R, error) {
	var zero R

	cached, hit, err := c.storage.Read(ctx, input)
	if err != nil {
		return zero, err
	}
	if hit {
		cacheCtx := ctx.Child("cache")
		_ = cacheCtx.Emit(event.Message{Message: "Cache detected. Using cache."})
		return cached, nil
	}

	result, err := c.inner.Execute(ctx, input)
	if err != nil {
		return result, err
	}
	if err := c.storage.Write(ctx, input, result); err != nil {
		return result, err
	}
	return result, nil
}
