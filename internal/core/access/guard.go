// Package access holds the route guard: a pure decision function that maps
// session state and a required role to a render/deny outcome. It has no side
// effects and no dependencies beyond the domain types, so both the HTTP
// middleware and any client embedding the session manager can share it.
package access

import (
	"github.com/touristsafety/identity-access-service/internal/core/domain"
)

type Decision int

const (
	// DecisionPending means session state is still being restored; callers
	// render a loading indicator and nothing else.
	DecisionPending Decision = iota
	DecisionRender
	DecisionRedirectToLogin
	DecisionAccessDenied
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionRender:
		return "render"
	case DecisionRedirectToLogin:
		return "redirect_to_login"
	case DecisionAccessDenied:
		return "access_denied"
	}
	return "unknown"
}

// State is a point-in-time snapshot of session manager state.
type State struct {
	Loading  bool
	Identity *domain.Identity
}

func (s State) Authenticated() bool {
	return s.Identity != nil
}

// Decide evaluates the guard rules in order: loading beats everything,
// unauthenticated redirects to login, a role mismatch denies, anything else
// renders. An empty requiredRole means any authenticated identity may pass.
func Decide(state State, requiredRole domain.Role) Decision {
	if state.Loading {
		return DecisionPending
	}
	if !state.Authenticated() {
		return DecisionRedirectToLogin
	}
	if requiredRole != "" && state.Identity.Role != requiredRole {
		return DecisionAccessDenied
	}
	return DecisionRender
}

// DecideAny is Decide generalized to a role set: the identity must hold one
// of the listed roles. An empty set admits any authenticated identity.
func DecideAny(state State, roles []domain.Role) Decision {
	if state.Loading {
		return DecisionPending
	}
	if !state.Authenticated() {
		return DecisionRedirectToLogin
	}
	if len(roles) == 0 {
		return DecisionRender
	}
	for _, r := range roles {
		if state.Identity.Role == r {
			return DecisionRender
		}
	}
	return DecisionAccessDenied
}
