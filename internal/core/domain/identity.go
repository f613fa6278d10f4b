package domain

import "time"

type Role string

const (
	RoleAdministrator Role = "ADMINISTRATOR"
	RoleAuthority     Role = "AUTHORITY"
	RoleViewer        Role = "VIEWER"
	RoleTourist       Role = "TOURIST"
)

// ValidRole reports whether r is one of the closed role set.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdministrator, RoleAuthority, RoleViewer, RoleTourist:
		return true
	}
	return false
}

type AuthorityType string

const (
	AuthorityAirport       AuthorityType = "Airport"
	AuthorityHotel         AuthorityType = "Hotel"
	AuthorityMonument      AuthorityType = "Monument"
	AuthorityPoliceStation AuthorityType = "Police Station"
	AuthorityHospital      AuthorityType = "Hospital"
)

func ValidAuthorityType(t AuthorityType) bool {
	switch t {
	case AuthorityAirport, AuthorityHotel, AuthorityMonument, AuthorityPoliceStation, AuthorityHospital:
		return true
	}
	return false
}

// Identity is an authenticated account record minus secrets. It is the only
// shape that ever crosses the session store boundary, so it must never carry
// password material.
type Identity struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`

	// Present only when Role == RoleAuthority.
	AuthorityName string        `json:"authority_name,omitempty"`
	AuthorityType AuthorityType `json:"authority_type,omitempty"`

	// Present only when Role == RoleTourist.
	TouristUID     string `json:"tourist_uid,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	PassportNumber string `json:"passport_number,omitempty"`
}

// NewAccount is the input to account creation. The password travels only as
// far as the credential store adapter, which hashes it before writing.
type NewAccount struct {
	ID            string
	Email         string
	DisplayName   string
	Password      string
	Role          Role
	AuthorityName string
	AuthorityType AuthorityType
}

// Validate checks the signup invariants before any mutation occurs.
func (a NewAccount) Validate() error {
	if a.DisplayName == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if a.Email == "" {
		return &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if a.Password == "" {
		return &ValidationError{Field: "password", Reason: "must not be empty"}
	}
	if len(a.Password) < MinPasswordLength {
		return &ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	}
	if !ValidRole(a.Role) {
		return &ValidationError{Field: "role", Reason: "unknown role"}
	}
	if a.Role == RoleAuthority {
		if a.AuthorityName == "" {
			return &ValidationError{Field: "authority_name", Reason: "required for authority accounts"}
		}
		if a.AuthorityType != "" && !ValidAuthorityType(a.AuthorityType) {
			return &ValidationError{Field: "authority_type", Reason: "unknown authority type"}
		}
	} else if a.AuthorityName != "" || a.AuthorityType != "" {
		return &ValidationError{Field: "authority_name", Reason: "only allowed for authority accounts"}
	}
	return nil
}

// MinPasswordLength is the signup password policy.
const MinPasswordLength = 6
