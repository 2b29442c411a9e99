package domain

import (
	"errors"
	"strings"
)

// Role is the authorization level attached to a user and to its tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ErrInvalidRole is returned by ParseRole for values outside the enumeration.
var ErrInvalidRole = errors.New("invalid role")

// ParseRole converts untrusted input into a Role. Matching is exact after
// trimming; anything else is rejected.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

// Valid reports whether r is a member of the enumeration.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// IsAdmin reports whether r grants administrative access.
func (r Role) IsAdmin() bool { return r == RoleAdmin }
