package ports

import (
	"context"

	"github.com/touristsafety/identity-access-service/internal/core/domain"
)

// SessionStore persists at most one identity per store instance under a
// single well-known key. Load returns domain.ErrNoSession when the record
// is absent; any other failure maps to domain.ErrPersistenceFailed by the
// session manager.
type SessionStore interface {
	Save(ctx context.Context, identity *domain.Identity) error
	Load(ctx context.Context) (*domain.Identity, error)
	Clear(ctx context.Context) error
}
