package rbac

import "github.com/inventario/inventario/internal/shared"

// Decision is the gate's verdict for one request.
type Decision uint8

const (
	// Deny means the caller is known but lacks the required role.
	Deny Decision = iota
	// Permit lets the request through.
	Permit
	// RequireAuthentication sends the caller to the login entry point.
	RequireAuthentication
)

func (d Decision) String() string {
	switch d {
	case Permit:
		return "permit"
	case RequireAuthentication:
		return "require_authentication"
	default:
		return "deny"
	}
}

type level uint8

const (
	levelPublic level = iota + 1
	levelAuthenticated
	levelRole
)

// Classification describes who may reach a resource. The zero value is not a
// valid classification and denies everyone.
type Classification struct {
	level level
	role  shared.Role
}

// Public resources are reachable by anyone.
func Public() Classification { return Classification{level: levelPublic} }

// AuthenticatedOnly resources need any bound identity.
func AuthenticatedOnly() Classification { return Classification{level: levelAuthenticated} }

// RoleRestricted resources need a bound identity holding role.
func RoleRestricted(role shared.Role) Classification {
	return Classification{level: levelRole, role: role}
}

func (c Classification) String() string {
	switch c.level {
	case levelPublic:
		return "public"
	case levelAuthenticated:
		return "authenticated"
	case levelRole:
		return "role:" + c.role.String()
	default:
		return "invalid"
	}
}
