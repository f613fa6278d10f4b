package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/touristsafety/identity-access-service/internal/core/domain"
)

func TestSeededStore_VerifyKnownAccounts(t *testing.T) {
	store := NewSeededCredentialStore()
	ctx := context.Background()

	admin, err := store.Verify(ctx, "admin@touristsafety.com", "admin123")
	if err != nil {
		t.Fatalf("verify admin: %v", err)
	}
	if admin.Role != domain.RoleAdministrator || admin.DisplayName != "System Administrator" {
		t.Errorf("unexpected admin identity: %+v", admin)
	}

	tourist, err := store.Verify(ctx, "tourist@example.com", "tourist123")
	if err != nil {
		t.Fatalf("verify tourist: %v", err)
	}
	if tourist.TouristUID != "UID-001" || tourist.Nationality != "USA" || tourist.PassportNumber != "A1234567" {
		t.Errorf("unexpected tourist identity: %+v", tourist)
	}
}

func TestVerify_WrongPasswordAndUnknownEmail(t *testing.T) {
	store := NewSeededCredentialStore()
	ctx := context.Background()

	if _, err := store.Verify(ctx, "admin@touristsafety.com", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := store.Verify(ctx, "ghost@example.com", "admin123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCreate_ThenVerify(t *testing.T) {
	store := NewMemoryCredentialStore()
	ctx := context.Background()

	created, err := store.Create(ctx, domain.NewAccount{
		ID:          "id-9",
		Email:       "jane@x.com",
		DisplayName: "Jane",
		Password:    "secret1",
		Role:        domain.RoleTourist,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "id-9" {
		t.Errorf("unexpected id: %s", created.ID)
	}

	verified, err := store.Verify(ctx, "jane@x.com", "secret1")
	if err != nil {
		t.Fatalf("verify created account: %v", err)
	}
	if verified.Email != "jane@x.com" || verified.Role != domain.RoleTourist {
		t.Errorf("unexpected identity: %+v", verified)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	store := NewSeededCredentialStore()

	_, err := store.Create(context.Background(), domain.NewAccount{
		ID:          "id-10",
		Email:       "admin@touristsafety.com",
		DisplayName: "Imposter",
		Password:    "secret1",
		Role:        domain.RoleViewer,
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestStoredHashIsNotThePlaintext(t *testing.T) {
	store := NewSeededCredentialStore()

	account := store.byEmail["admin@touristsafety.com"]
	if account == nil {
		t.Fatal("expected seeded account")
	}
	if string(account.hash) == "admin123" {
		t.Error("password must be stored hashed")
	}
}
