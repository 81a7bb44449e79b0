package ayurcare

import "strings"

// Role is the account's role. It is immutable after creation and selects
// both the extension fields that are legal on the record and the routes
// the account may call.
type Role = string

const (
	// RoleDoctor is a practitioner account (manages assigned patients)
	RoleDoctor Role = "doctor"
	// RolePatient is a patient account (owns its records)
	RolePatient Role = "patient"
)

// IsValidRole checks if the role is one of the predefined roles
func IsValidRole(r Role) bool {
	switch r {
	case RoleDoctor, RolePatient:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(roleStr)))
	return role, IsValidRole(role)
}

// AllRoles returns every predefined role
func AllRoles() []Role {
	return []Role{RoleDoctor, RolePatient}
}

// RoleIn reports whether role is a member of the allowed set
func RoleIn(role Role, allowed ...Role) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}
