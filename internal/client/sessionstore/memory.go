// Package sessionstore caches the last known authenticated user between
// page loads. The cache only bridges the gap until the server is re-queried;
// it is never treated as a source of truth.
package sessionstore

import (
	"sync"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
)

// Memory is the in-process store, the analog of per-tab session storage.
type Memory struct {
	mu   sync.Mutex
	user *domain.User
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Save(user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user.Clone()
	return nil
}

func (m *Memory) Load() (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil, domain.ErrSessionNotFound
	}
	return m.user.Clone(), nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	return nil
}
