package services

import (
	"context"
	"sync"

	"github.com/touristsafety/identity-access-service/internal/core/ports"
)

// SessionStoreFactory builds a session store scoped to one client. Each
// client (mobile device, browser) owns exactly one persisted session record.
type SessionStoreFactory func(clientID string) ports.SessionStore

// SessionRegistry hands out one SessionManager per client scope, so the
// single-session semantics of the manager hold per device rather than
// process-wide. Managers are created lazily and restored on first use.
type SessionRegistry struct {
	creds   ports.CredentialStore
	factory SessionStoreFactory

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// registryEntry pairs a manager with a once guarding its initial restore, so
// concurrent first accesses for the same client all wait for the restore
// instead of observing a not-yet-restored manager.
type registryEntry struct {
	restore sync.Once
	mgr     *SessionManager
}

func NewSessionRegistry(creds ports.CredentialStore, factory SessionStoreFactory) *SessionRegistry {
	return &SessionRegistry{
		creds:   creds,
		factory: factory,
		entries: make(map[string]*registryEntry),
	}
}

// Manager returns the session manager for clientID, creating and restoring
// it on first access. Restore failures degrade to an unauthenticated manager
// and are reported by the manager itself; the caller still gets a usable
// instance.
func (r *SessionRegistry) Manager(ctx context.Context, clientID string) *SessionManager {
	r.mu.Lock()
	ent, ok := r.entries[clientID]
	if !ok {
		ent = &registryEntry{mgr: NewSessionManager(r.creds, r.factory(clientID))}
		r.entries[clientID] = ent
	}
	r.mu.Unlock()

	ent.restore.Do(func() {
		_ = ent.mgr.Restore(ctx)
	})
	return ent.mgr
}

// Evict drops the manager for clientID. Used after logout so an abandoned
// client scope does not pin memory.
func (r *SessionRegistry) Evict(clientID string) {
	r.mu.Lock()
	delete(r.entries, clientID)
	r.mu.Unlock()
}

// Len reports how many client scopes currently hold a manager.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
