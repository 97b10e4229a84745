package domain

import "fmt"

// Role classifies an authenticated caller for policy decisions.
type Role string

const (
	// RoleGuardian may submit profiles and read disclosure state.
	RoleGuardian Role = "guardian"
	// RoleCounselor may additionally trigger disclosure and plan analysis.
	RoleCounselor Role = "counselor"
	// RoleService is the trusted off-platform computation agent that submits
	// generated learning plans.
	RoleService Role = "service"
)

var validRoles = map[Role]bool{
	RoleGuardian:  true,
	RoleCounselor: true,
	RoleService:   true,
}

// ParseRole validates and returns a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", fmt.Errorf("unknown role: %s", s)
	}
	return r, nil
}

// Caller is the authenticated identity attached to a request. The zero value
// means "unauthenticated".
type Caller struct {
	Subject string
	Role    Role
}

// IsNil reports whether the caller is unauthenticated.
func (c Caller) IsNil() bool { return c.Subject == "" }
