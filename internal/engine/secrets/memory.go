// Package secrets provides SecretsManager implementations: an in-memory
// reference store for tests/CLI use, and an Azure Key Vault-backed store
// for production deployments (spec §6, domain stack §11.5).
package secrets

import (
	"context"
	"sync"

	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
)

// MemoryManager is an in-process SecretsManager, grounded on the
// teacher's infrastructure/secrets.Manager shape minus its
// Supabase-backed repository and audit log — those are out of scope
// here, the name/value map is kept behind a single mutex instead.
type MemoryManager struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemoryManager builds an empty MemoryManager, optionally seeded.
func NewMemoryManager(seed map[string]string) *MemoryManager {
	m := &MemoryManager{secrets: make(map[string]string, len(seed))}
	for k, v := range seed {
		m.secrets[k] = v
	}
	return m
}

func (m *MemoryManager) ResolveSecret(_ context.Context, name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.secrets[name]
	return v, ok, nil
}

func (m *MemoryManager) CreateSecret(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[name] = value
	return nil
}

func (m *MemoryManager) RemoveSecret(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, name)
	return nil
}

// ResolveConfigValue resolves direct > named secret variable > default,
// in that priority order, matching the engine's ResolveConfigValue
// contract (spec §6).
func (m *MemoryManager) ResolveConfigValue(ctx context.Context, direct *string, varName *string, fieldName string, def *string) (string, error) {
	if direct != nil {
		return *direct, nil
	}
	if varName != nil {
		value, ok, err := m.ResolveSecret(ctx, *varName)
		if err != nil {
			return "", err
		}
		if ok {
			return value, nil
		}
	}
	if def != nil {
		return *def, nil
	}
	return "", enginerr.New(enginerr.SecretNotFound, "no value resolved for config field").WithDetail("field", fieldName)
}
