package sessionstore

import (
	"context"
	"errors"
	"testing"

	"github.com/touristsafety/identity-access-service/internal/core/domain"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("empty store: expected ErrNoSession, got %v", err)
	}

	identity := &domain.Identity{ID: "1", Email: "admin@touristsafety.com", Role: domain.RoleAdministrator}
	if err := store.Save(ctx, identity); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ID != "1" || loaded.Role != domain.RoleAdministrator {
		t.Errorf("unexpected identity: %+v", loaded)
	}

	// The store hands out copies; mutating one must not affect the record.
	loaded.Email = "tampered@example.com"
	again, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if again.Email != "admin@touristsafety.com" {
		t.Error("stored record must be isolated from returned copies")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNoSession) {
		t.Errorf("after clear: expected ErrNoSession, got %v", err)
	}
}

func TestMemoryStore_ErrorInjection(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.SaveError = errors.New("boom")
	if err := store.Save(ctx, &domain.Identity{ID: "1"}); err == nil {
		t.Error("expected injected save error")
	}

	store.SaveError = nil
	store.ClearError = errors.New("boom")
	if err := store.Clear(ctx); err == nil {
		t.Error("expected injected clear error")
	}
}
