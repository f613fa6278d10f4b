package sessionstore

import (
	"context"
	"sync"

	"github.com/touristsafety/identity-access-service/internal/core/domain"
	"github.com/touristsafety/identity-access-service/internal/core/ports"
)

// MemoryStore is a process-local session store. It backs dev mode and tests,
// and doubles as the safe-degradation target when running without Redis:
// sessions survive for the current process only.
type MemoryStore struct {
	mu       sync.RWMutex
	identity *domain.Identity

	// Error injection for tests.
	SaveError  error
	LoadError  error
	ClearError error

	SaveCalls  int
	LoadCalls  int
	ClearCalls int
}

var _ ports.SessionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(ctx context.Context, identity *domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveCalls++
	if s.SaveError != nil {
		return s.SaveError
	}
	cp := *identity
	s.identity = &cp
	return nil
}

func (s *MemoryStore) Load(ctx context.Context) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LoadCalls++
	if s.LoadError != nil {
		return nil, s.LoadError
	}
	if s.identity == nil {
		return nil, domain.ErrNoSession
	}
	cp := *s.identity
	return &cp, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClearCalls++
	if s.ClearError != nil {
		return s.ClearError
	}
	s.identity = nil
	return nil
}

// Stored returns the current persisted identity, for test assertions.
func (s *MemoryStore) Stored() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}
