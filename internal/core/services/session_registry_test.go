package services

import (
	"context"
	"testing"
	"time"

	"github.com/touristsafety/identity-access-service/internal/adapters/repository"
	"github.com/touristsafety/identity-access-service/internal/adapters/sessionstore"
	"github.com/touristsafety/identity-access-service/internal/core/domain"
	"github.com/touristsafety/identity-access-service/internal/core/ports"
)

func newTestRegistry() (*SessionRegistry, map[string]*sessionstore.MemoryStore) {
	stores := make(map[string]*sessionstore.MemoryStore)
	creds := repository.NewSeededCredentialStore()
	registry := NewSessionRegistry(creds, func(clientID string) ports.SessionStore {
		s := sessionstore.NewMemoryStore()
		stores[clientID] = s
		return s
	})
	return registry, stores
}

func TestRegistry_OneManagerPerClientScope(t *testing.T) {
	registry, _ := newTestRegistry()
	ctx := context.Background()

	a := registry.Manager(ctx, "device-a")
	b := registry.Manager(ctx, "device-b")
	if a == b {
		t.Fatal("distinct clients must get distinct managers")
	}

	if again := registry.Manager(ctx, "device-a"); again != a {
		t.Error("same client must get the same manager back")
	}
	if registry.Len() != 2 {
		t.Errorf("expected 2 scopes, got %d", registry.Len())
	}
}

func TestRegistry_SessionsAreIsolatedPerClient(t *testing.T) {
	registry, _ := newTestRegistry()
	ctx := context.Background()

	a := registry.Manager(ctx, "device-a")
	if _, err := a.Login(ctx, "admin@touristsafety.com", "admin123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	b := registry.Manager(ctx, "device-b")
	if b.IsAuthenticated() {
		t.Error("another client's login must not leak into this scope")
	}
}

func TestRegistry_ManagerIsRestoredOnFirstAccess(t *testing.T) {
	registry, stores := newTestRegistry()
	ctx := context.Background()

	mgr := registry.Manager(ctx, "device-a")
	if mgr.IsLoading() {
		t.Error("manager must come back restored")
	}
	if stores["device-a"].LoadCalls == 0 {
		t.Error("first access must attempt a restore from the session store")
	}
}

// gateStore holds Load until the gate closes, modelling a slow restore.
type gateStore struct {
	identity *domain.Identity
	gate     chan struct{}
}

var _ ports.SessionStore = (*gateStore)(nil)

func (s *gateStore) Save(ctx context.Context, identity *domain.Identity) error { return nil }

func (s *gateStore) Load(ctx context.Context) (*domain.Identity, error) {
	<-s.gate
	if s.identity == nil {
		return nil, domain.ErrNoSession
	}
	cp := *s.identity
	return &cp, nil
}

func (s *gateStore) Clear(ctx context.Context) error {
	s.identity = nil
	return nil
}

func TestRegistry_ConcurrentFirstAccessWaitsForRestore(t *testing.T) {
	store := &gateStore{
		identity: &domain.Identity{ID: "UID-001", Email: "tourist@example.com", Role: domain.RoleTourist},
		gate:     make(chan struct{}),
	}
	creds := repository.NewSeededCredentialStore()
	registry := NewSessionRegistry(creds, func(string) ports.SessionStore { return store })

	results := make(chan bool, 2)
	for i := 0; i < 2; i++ {
		go func() {
			mgr := registry.Manager(context.Background(), "device-a")
			results <- mgr.IsAuthenticated()
		}()
	}

	// Both callers must block until the restore finishes.
	time.Sleep(20 * time.Millisecond)
	close(store.gate)

	for i := 0; i < 2; i++ {
		if !<-results {
			t.Fatal("a caller observed the manager before its restore completed")
		}
	}
}

func TestRegistry_Evict(t *testing.T) {
	registry, _ := newTestRegistry()
	ctx := context.Background()

	registry.Manager(ctx, "device-a")
	registry.Evict("device-a")
	if registry.Len() != 0 {
		t.Errorf("expected empty registry, got %d", registry.Len())
	}
}
