package rolestate

import (
	"errors"
	"fmt"
)

var ErrInvalidRole = errors.New("rolestate: invalid role")

var ErrUnknownBackend = errors.New("rolestate: unknown backend")

// InvalidRoleError reports a value outside the role enumeration.
type InvalidRoleError struct {
	Value string
}

func (e *InvalidRoleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("rolestate: invalid role %q (want %q or %q)", e.Value, Student, Coach)
}

// Is lets errors.Is(err, ErrInvalidRole) match.
func (e *InvalidRoleError) Is(target error) bool {
	return target == ErrInvalidRole
}
