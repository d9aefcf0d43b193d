package shared

import (
	"fmt"
	"strings"
)

// Role is the closed set of authorities an account can hold.
type Role uint8

const (
	// RoleUnknown is the zero value and never grants access.
	RoleUnknown Role = iota
	// RoleAdmin manages the catalog and sees statistics.
	RoleAdmin
	// RoleUser browses the catalog and keeps a cart.
	RoleUser
)

// ParseRole converts a stored role tag into a Role. The legacy ROLE_ prefix is
// accepted; any other value is rejected.
func ParseRole(raw string) (Role, error) {
	switch strings.TrimPrefix(strings.TrimSpace(raw), "ROLE_") {
	case "ADMIN":
		return RoleAdmin, nil
	case "USER":
		return RoleUser, nil
	default:
		return RoleUnknown, fmt.Errorf("shared: unknown role %q", raw)
	}
}

// String returns the canonical tag stored alongside accounts.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleUser:
		return "USER"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether r is a member of the closed set.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}
