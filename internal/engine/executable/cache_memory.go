package executable

import (
	"sync"
	"time"

	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
)

// KeyFunc digests an input into the cache key Cache reads/writes under.
type KeyFunc[I any] func(input I) string

type memoryEntry[R any] struct {
	value      R
	expiration time.Time
}

// MemoryCacheStorage is an in-process CacheStorage, grounded on the
// teacher's infrastructure/cache.Cache TTL-map shape, used by tests and
// deployments with no Redis available.
type MemoryCacheStorage[I, R any] struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry[R]
	keyOf   KeyFunc[I]
	ttl     time.Duration
}

// NewMemoryCacheStorage builds an empty MemoryCacheStorage. A zero ttl
// means entries never expire.
func NewMemoryCacheStorage[I, R any](keyOf KeyFunc[I], ttl time.Duration) *MemoryCacheStorage[I, R] {
	return &MemoryCacheStorage[I, R]{
		entries: make(map[string]memoryEntry[R]),
		keyOf:   keyOf,
		ttl:     ttl,
	}
}

func (m *MemoryCacheStorage[I, R]) Read(_ *ectx.ExecutionContext, input I) (R, bool, error) {
	var zero R
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[m.keyOf(input)]
	if !ok {
		return zero, false, nil
	}
	if !entry.expiration.IsZero() && time.Now().After(entry.expiration) {
		return zero, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryCacheStorage[I, R]) Write(_ *ectx.ExecutionContext, input I, response R) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiration time.Time
	if m.ttl > 0 {
		expiration = time.Now().Add(m.ttl)
	}
	m.entries[m.keyOf(input)] = memoryEntry[R]{value: response, expiration: expiration}
	return nil
}
