package middleware

import (
	"context"
	"crypto/rsa"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/touristsafety/identity-access-service/internal/core/access"
	"github.com/touristsafety/identity-access-service/internal/core/domain"
	"github.com/touristsafety/identity-access-service/internal/observability"
)

type AuthMiddleware struct {
	publicKey *rsa.PublicKey
}

func NewAuthMiddleware(publicKey *rsa.PublicKey) *AuthMiddleware {
	return &AuthMiddleware{
		publicKey: publicKey,
	}
}

type contextKey string

const (
	UserIDKey contextKey = "userID"
	RoleKey   contextKey = "role"
)

// RequireRole verifies the bearer token, builds a guard state from its
// claims and applies the route guard. An empty role list admits any
// authenticated identity.
func (m *AuthMiddleware) RequireRole(roles []domain.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.deny(w, access.DecisionRedirectToLogin, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.deny(w, access.DecisionRedirectToLogin, "invalid authorization header")
			return
		}

		tokenString := parts[1]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.publicKey, nil
		})
		if err != nil || !token.Valid {
			log.Printf("Token parse error: %v", err)
			m.deny(w, access.DecisionRedirectToLogin, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			m.deny(w, access.DecisionRedirectToLogin, "invalid token claims")
			return
		}

		userID, ok := claims["sub"].(string)
		if !ok || userID == "" {
			m.deny(w, access.DecisionRedirectToLogin, "invalid token: missing user ID")
			return
		}

		userRole, ok := claims["role"].(string)
		if !ok || userRole == "" {
			m.deny(w, access.DecisionRedirectToLogin, "invalid token: missing role")
			return
		}

		state := access.State{
			Identity: &domain.Identity{ID: userID, Role: domain.Role(userRole)},
		}

		decision := access.DecideAny(state, roles)
		observability.GuardDecisions.WithLabelValues(decision.String()).Inc()
		if decision != access.DecisionRender {
			log.Printf("Guard denied %s (role %s): %s", userID, userRole, decision)
			m.deny(w, decision, "forbidden")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, RoleKey, userRole)

		next(w, r.WithContext(ctx))
	}
}

func (m *AuthMiddleware) deny(w http.ResponseWriter, decision access.Decision, msg string) {
	status := http.StatusUnauthorized
	if decision == access.DecisionAccessDenied {
		status = http.StatusForbidden
	}
	if decision == access.DecisionRedirectToLogin {
		observability.GuardDecisions.WithLabelValues(decision.String()).Inc()
	}
	http.Error(w, msg, status)
}
