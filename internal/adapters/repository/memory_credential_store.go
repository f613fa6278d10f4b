package repository

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/touristsafety/identity-access-service/internal/core/domain"
	"github.com/touristsafety/identity-access-service/internal/core/ports"
)

// MemoryCredentialStore keeps accounts in memory with bcrypt-hashed
// passwords. It backs dev mode and tests; production uses the SQL store.
type MemoryCredentialStore struct {
	mu       sync.RWMutex
	byEmail  map[string]*memoryAccount
	VerifyFn func(ctx context.Context, email, password string) (*domain.Identity, error)
	CreateFn func(ctx context.Context, account domain.NewAccount) (*domain.Identity, error)
}

type memoryAccount struct {
	identity domain.Identity
	hash     []byte
}

var _ ports.CredentialStore = (*MemoryCredentialStore)(nil)

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{byEmail: make(map[string]*memoryAccount)}
}

// NewSeededCredentialStore returns a memory store preloaded with the demo
// accounts used by the dev environment.
func NewSeededCredentialStore() *MemoryCredentialStore {
	s := NewMemoryCredentialStore()
	s.Seed(domain.Identity{
		ID:          "1",
		Email:       "admin@touristsafety.com",
		DisplayName: "System Administrator",
		Role:        domain.RoleAdministrator,
		CreatedAt:   time.Now().UTC(),
	}, "admin123")
	s.Seed(domain.Identity{
		ID:             "2",
		Email:          "tourist@example.com",
		DisplayName:    "John Smith",
		Role:           domain.RoleTourist,
		CreatedAt:      time.Now().UTC(),
		TouristUID:     "UID-001",
		Nationality:    "USA",
		PassportNumber: "A1234567",
	}, "tourist123")
	return s
}

// Seed registers an account with the given plaintext password, hashing it
// the same way the SQL store does.
func (s *MemoryCredentialStore) Seed(identity domain.Identity, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		log.Printf("credential store: seeding %s failed: %v", identity.Email, err)
		return
	}
	s.mu.Lock()
	s.byEmail[identity.Email] = &memoryAccount{identity: identity, hash: hash}
	s.mu.Unlock()
}

func (s *MemoryCredentialStore) Verify(ctx context.Context, email, password string) (*domain.Identity, error) {
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, email, password)
	}

	s.mu.RLock()
	account, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(account.hash, []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	cp := account.identity
	return &cp, nil
}

func (s *MemoryCredentialStore) Create(ctx context.Context, account domain.NewAccount) (*domain.Identity, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, account)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	identity := identityFromAccount(account)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[account.Email]; exists {
		return nil, domain.ErrEmailTaken
	}
	s.byEmail[account.Email] = &memoryAccount{identity: *identity, hash: hash}
	return identity, nil
}
