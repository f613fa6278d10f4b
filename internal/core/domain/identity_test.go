package domain

import (
	"errors"
	"testing"
)

func validAccount() NewAccount {
	return NewAccount{
		ID:          "id-1",
		Email:       "jane@x.com",
		DisplayName: "Jane",
		Password:    "secret1",
		Role:        RoleTourist,
	}
}

func TestNewAccountValidate(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*NewAccount)
		wantField string
	}{
		{"valid tourist", func(a *NewAccount) {}, ""},
		{"valid authority", func(a *NewAccount) {
			a.Role = RoleAuthority
			a.AuthorityName = "Heathrow Desk"
			a.AuthorityType = AuthorityAirport
		}, ""},
		{"empty name", func(a *NewAccount) { a.DisplayName = "" }, "name"},
		{"empty email", func(a *NewAccount) { a.Email = "" }, "email"},
		{"empty password", func(a *NewAccount) { a.Password = "" }, "password"},
		{"short password", func(a *NewAccount) { a.Password = "abc12" }, "password"},
		{"unknown role", func(a *NewAccount) { a.Role = "SUPERUSER" }, "role"},
		{"authority without name", func(a *NewAccount) { a.Role = RoleAuthority }, "authority_name"},
		{"authority with bad type", func(a *NewAccount) {
			a.Role = RoleAuthority
			a.AuthorityName = "Desk"
			a.AuthorityType = "Spaceport"
		}, "authority_type"},
		{"authority fields on tourist", func(a *NewAccount) { a.AuthorityName = "Desk" }, "authority_name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account := validAccount()
			tc.mutate(&account)

			err := account.Validate()
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid account, got %v", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.wantField {
				t.Errorf("expected field %q, got %q", tc.wantField, vErr.Field)
			}
		})
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []Role{RoleAdministrator, RoleAuthority, RoleViewer, RoleTourist} {
		if !ValidRole(r) {
			t.Errorf("%s must be valid", r)
		}
	}
	if ValidRole("ADMIN") {
		t.Error("unlisted role must be invalid")
	}
}

func TestValidAuthorityType(t *testing.T) {
	for _, at := range []AuthorityType{AuthorityAirport, AuthorityHotel, AuthorityMonument, AuthorityPoliceStation, AuthorityHospital} {
		if !ValidAuthorityType(at) {
			t.Errorf("%s must be valid", at)
		}
	}
	if ValidAuthorityType("Mall") {
		t.Error("unlisted authority type must be invalid")
	}
}
