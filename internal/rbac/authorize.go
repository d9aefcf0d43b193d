package rbac

import (
	"github.com/inventario/inventario/internal/session"
	"github.com/inventario/inventario/internal/shared"
)

// Authorize decides whether sess may reach a resource classified as c.
func Authorize(sess *session.Session, c Classification) Decision {
	switch c.level {
	case levelPublic:
		return Permit
	case levelAuthenticated:
		if !sess.Bound() {
			return RequireAuthentication
		}
		return Permit
	case levelRole:
		if !sess.Bound() {
			return RequireAuthentication
		}
		if roleSatisfies(sess.Role, c.role) {
			return Permit
		}
		return Deny
	default:
		return Deny
	}
}

func roleSatisfies(held, required shared.Role) bool {
	switch required {
	case shared.RoleAdmin:
		return held == shared.RoleAdmin
	case shared.RoleUser:
		return held == shared.RoleUser
	default:
		return false
	}
}
