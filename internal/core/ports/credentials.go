package ports

import (
	"context"

	"github.com/touristsafety/identity-access-service/internal/core/domain"
)

// CredentialStore is the trusted authority that verifies and creates
// accounts. Implementations compare hashed secrets internally and never
// return secret material.
type CredentialStore interface {
	// Verify returns the identity matching (email, password), or
	// domain.ErrInvalidCredentials when no account matches, or
	// domain.ErrStoreUnavailable on infrastructure failure.
	Verify(ctx context.Context, email, password string) (*domain.Identity, error)

	// Create registers a new account and returns its identity.
	// Returns domain.ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, account domain.NewAccount) (*domain.Identity, error)
}
