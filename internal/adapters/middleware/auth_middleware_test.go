package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/touristsafety/identity-access-service/internal/core/domain"
	"github.com/touristsafety/identity-access-service/internal/core/services"
)

func newTestMiddleware(t *testing.T) (*AuthMiddleware, *services.TokenService) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return NewAuthMiddleware(&key.PublicKey), services.NewTokenService(key)
}

func issueToken(t *testing.T, tokens *services.TokenService, role domain.Role) string {
	t.Helper()

	token, err := tokens.IssueToken(&domain.Identity{ID: "user-1", Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func protectedRequest(m *AuthMiddleware, roles []domain.Role, token string) *httptest.ResponseRecorder {
	next := func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Value(UserIDKey) == nil || r.Context().Value(RoleKey) == nil {
			http.Error(w, "missing identity context", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/sessions", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	m.RequireRole(roles, next)(rec, req)
	return rec
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	m, tokens := newTestMiddleware(t)
	token := issueToken(t, tokens, domain.RoleAdministrator)

	rec := protectedRequest(m, []domain.Role{domain.RoleAdministrator}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRequireRole_DeniesMismatchedRole(t *testing.T) {
	m, tokens := newTestMiddleware(t)
	token := issueToken(t, tokens, domain.RoleTourist)

	rec := protectedRequest(m, []domain.Role{domain.RoleAdministrator}, token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRole_EmptyRoleSetAdmitsAnyIdentity(t *testing.T) {
	m, tokens := newTestMiddleware(t)
	token := issueToken(t, tokens, domain.RoleViewer)

	rec := protectedRequest(m, nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_MissingOrMalformedHeader(t *testing.T) {
	m, _ := newTestMiddleware(t)

	rec := protectedRequest(m, nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header: expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/sessions", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec2 := httptest.NewRecorder()
	m.RequireRole(nil, func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	})(rec2, req)
	if rec2.Code != http.StatusUnauthorized {
		t.Errorf("malformed header: expected 401, got %d", rec2.Code)
	}
}

func TestRequireRole_RejectsForeignSignature(t *testing.T) {
	m, _ := newTestMiddleware(t)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	foreign := services.NewTokenService(otherKey)
	token := issueToken(t, foreign, domain.RoleAdministrator)

	rec := protectedRequest(m, []domain.Role{domain.RoleAdministrator}, token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign signature, got %d", rec.Code)
	}
}
