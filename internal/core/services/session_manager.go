package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/touristsafety/identity-access-service/internal/core/access"
	"github.com/touristsafety/identity-access-service/internal/core/domain"
	"github.com/touristsafety/identity-access-service/internal/core/ports"
)

// DefaultOperationTimeout bounds credential verification and session
// persistence calls so a stalled backend surfaces as ErrStoreUnavailable or
// ErrPersistenceFailed instead of hanging the caller.
const DefaultOperationTimeout = 10 * time.Second

// SessionManager owns at most one authenticated identity. It orchestrates
// login, signup, logout and restore-on-start, keeping the in-memory session
// and the durable copy in the session store consistent: the durable copy is
// written before the in-memory transition becomes visible, so after a crash
// the store is the source of truth for the next restore.
//
// Mutating operations are serialized through an operation mutex. A second
// mutating call made while one is outstanding waits for it; it is never
// interleaved, so a slow login can not resolve after a logout and resurrect
// a stale session. Reads never block behind in-flight mutations.
type SessionManager struct {
	creds     ports.CredentialStore
	store     ports.SessionStore
	opTimeout time.Duration

	// op serializes Login/Signup/Logout/Restore. Held across the I/O of a
	// single operation.
	op sync.Mutex

	mu       sync.RWMutex
	identity *domain.Identity
	loading  bool
	restored bool
}

func NewSessionManager(creds ports.CredentialStore, store ports.SessionStore) *SessionManager {
	return &SessionManager{
		creds:     creds,
		store:     store,
		opTimeout: DefaultOperationTimeout,
		loading:   true,
	}
}

// SetOperationTimeout overrides the per-call I/O deadline. Zero restores the
// default. Takes the operation mutex, so the new deadline applies from the
// next operation onward.
func (m *SessionManager) SetOperationTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultOperationTimeout
	}
	m.op.Lock()
	m.opTimeout = d
	m.op.Unlock()
}

// Restore loads the persisted session, if any. It is called once at startup
// and never contacts the credential store. The loading flag is cleared on
// every exit path, including failure, so route guards are never left
// pending. Repeat calls are no-ops.
func (m *SessionManager) Restore(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()

	m.mu.RLock()
	restored := m.restored
	m.mu.RUnlock()
	if restored {
		return nil
	}

	defer func() {
		m.mu.Lock()
		m.restored = true
		m.loading = false
		m.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	identity, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			return nil
		}
		log.Printf("session: restore failed, starting unauthenticated: %v", err)
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	m.mu.Lock()
	m.identity = identity
	m.mu.Unlock()
	return nil
}

// Login verifies the credentials, persists the resulting identity and
// transitions to authenticated. On a non-match the state is unchanged and
// ErrInvalidCredentials is returned; credential store failures come back as
// ErrStoreUnavailable so callers can retry. If the synchronous persistence
// write fails the login fails with ErrPersistenceFailed and no transition
// happens: the durable copy stays authoritative.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	m.op.Lock()
	defer m.op.Unlock()

	m.setLoading(true)
	defer m.setLoading(false)

	vctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	identity, err := m.creds.Verify(vctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	sctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	if err := m.store.Save(sctx, identity); err != nil {
		log.Printf("session: persisting login for %s failed: %v", identity.ID, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	m.mu.Lock()
	m.identity = identity
	m.mu.Unlock()
	return identity, nil
}

// SignupInput carries the signup form fields. Password confirmation equality
// is the caller's concern and checked before invocation.
type SignupInput struct {
	Name          string
	Email         string
	Password      string
	Role          domain.Role
	AuthorityName string
	AuthorityType domain.AuthorityType
}

// Signup validates the input, creates the account through the credential
// store and authenticates the new identity. Validation failures occur before
// any mutation or persistence write. Local authentication is conditional on
// the credential store accepting the account.
func (m *SessionManager) Signup(ctx context.Context, input SignupInput) (*domain.Identity, error) {
	m.op.Lock()
	defer m.op.Unlock()

	account := domain.NewAccount{
		ID:            uuid.NewString(),
		Email:         input.Email,
		DisplayName:   input.Name,
		Password:      input.Password,
		Role:          input.Role,
		AuthorityName: input.AuthorityName,
		AuthorityType: input.AuthorityType,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}

	m.setLoading(true)
	defer m.setLoading(false)

	cctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	identity, err := m.creds.Create(cctx, account)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	sctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	if err := m.store.Save(sctx, identity); err != nil {
		log.Printf("session: persisting signup for %s failed: %v", identity.ID, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	m.mu.Lock()
	m.identity = identity
	m.mu.Unlock()
	return identity, nil
}

// Logout clears the in-memory session unconditionally, then clears the
// durable copy. The in-memory session is gone even when the persisted clear
// fails; the failure is still returned (and logged) for diagnostics.
// Idempotent: a second logout is a no-op with the same end state.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()

	m.mu.Lock()
	m.identity = nil
	m.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	if err := m.store.Clear(cctx); err != nil {
		log.Printf("session: clearing persisted session failed: %v", err)
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}
	return nil
}

// CurrentIdentity returns the authenticated identity, or nil. Pure read.
func (m *SessionManager) CurrentIdentity() *domain.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity
}

// IsAuthenticated reports whether an identity is attached. Pure read.
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity != nil
}

// IsLoading reports whether restore (or a mutating operation) is in flight.
func (m *SessionManager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// State returns a snapshot consumable by the route guard.
func (m *SessionManager) State() access.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return access.State{Loading: m.loading, Identity: m.identity}
}

func (m *SessionManager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}
