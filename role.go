package rolestate

import "strings"

// Role is the operating mode of the application for the current session.
type Role string

const (
	Student Role = "student"
	Coach   Role = "coach"
)

// DefaultRole is adopted when nothing valid was persisted.
const DefaultRole = Student

// Roles lists every valid role in declaration order.
func Roles() []Role {
	return []Role{Student, Coach}
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case Student, Coach:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts free-form input at a boundary. Surrounding whitespace is
// ignored, anything else must match exactly.
func ParseRole(input string) (Role, error) {
	role := Role(strings.TrimSpace(input))
	if !role.Valid() {
		return "", &InvalidRoleError{Value: input}
	}
	return role, nil
}

// roleFromStorage is stricter than ParseRole: a persisted value must be the
// exact literal.
func roleFromStorage(value string) (Role, bool) {
	role := Role(value)
	return role, role.Valid()
}
