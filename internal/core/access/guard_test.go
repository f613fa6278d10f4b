package access

import (
	"testing"

	"github.com/touristsafety/identity-access-service/internal/core/domain"
)

func adminState() State {
	return State{Identity: &domain.Identity{ID: "1", Role: domain.RoleAdministrator}}
}

func TestDecide_LoadingBeatsEverything(t *testing.T) {
	st := adminState()
	st.Loading = true

	if got := Decide(st, domain.RoleAdministrator); got != DecisionPending {
		t.Errorf("expected pending while loading, got %s", got)
	}
	if got := Decide(State{Loading: true}, ""); got != DecisionPending {
		t.Errorf("expected pending for anonymous loading state, got %s", got)
	}
}

func TestDecide_UnauthenticatedRedirects(t *testing.T) {
	if got := Decide(State{}, ""); got != DecisionRedirectToLogin {
		t.Errorf("expected redirect for empty state, got %s", got)
	}
	if got := Decide(State{}, domain.RoleViewer); got != DecisionRedirectToLogin {
		t.Errorf("expected redirect before role check, got %s", got)
	}
}

func TestDecide_RoleMismatchDenies(t *testing.T) {
	st := State{Identity: &domain.Identity{ID: "2", Role: domain.RoleTourist}}

	if got := Decide(st, domain.RoleAdministrator); got != DecisionAccessDenied {
		t.Errorf("expected access denied, got %s", got)
	}
}

func TestDecide_MatchingRoleRenders(t *testing.T) {
	if got := Decide(adminState(), domain.RoleAdministrator); got != DecisionRender {
		t.Errorf("expected render, got %s", got)
	}
}

func TestDecide_EmptyRequiredRoleRendersAnyIdentity(t *testing.T) {
	st := State{Identity: &domain.Identity{ID: "3", Role: domain.RoleViewer}}

	if got := Decide(st, ""); got != DecisionRender {
		t.Errorf("expected render without required role, got %s", got)
	}
}

func TestDecideAny(t *testing.T) {
	tourist := State{Identity: &domain.Identity{ID: "2", Role: domain.RoleTourist}}

	cases := []struct {
		name  string
		state State
		roles []domain.Role
		want  Decision
	}{
		{"loading", State{Loading: true}, nil, DecisionPending},
		{"unauthenticated", State{}, []domain.Role{domain.RoleTourist}, DecisionRedirectToLogin},
		{"empty set admits", tourist, nil, DecisionRender},
		{"member of set", tourist, []domain.Role{domain.RoleAdministrator, domain.RoleTourist}, DecisionRender},
		{"not in set", tourist, []domain.Role{domain.RoleAdministrator, domain.RoleAuthority}, DecisionAccessDenied},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecideAny(tc.state, tc.roles); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDecisionString(t *testing.T) {
	if DecisionRender.String() != "render" {
		t.Errorf("unexpected string: %s", DecisionRender)
	}
	if Decision(99).String() != "unknown" {
		t.Errorf("unexpected string for out-of-range decision")
	}
}
