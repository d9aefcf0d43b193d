package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inventario/inventario/internal/session"
	"github.com/inventario/inventario/internal/shared"
)

func TestAuthorizeMatrix(t *testing.T) {
	anon := session.Anonymous()
	user := &session.Session{Token: "t1", Username: "user", Role: shared.RoleUser}
	admin := &session.Session{Token: "t2", Username: "admin", Role: shared.RoleAdmin}
	broken := &session.Session{Token: "t3", Username: "ghost"}

	cases := []struct {
		name string
		sess *session.Session
		c    Classification
		want Decision
	}{
		{"public anonymous", anon, Public(), Permit},
		{"public nil session", nil, Public(), Permit},
		{"authenticated anonymous", anon, AuthenticatedOnly(), RequireAuthentication},
		{"authenticated user", user, AuthenticatedOnly(), Permit},
		{"authenticated admin", admin, AuthenticatedOnly(), Permit},
		{"admin route anonymous", anon, RoleRestricted(shared.RoleAdmin), RequireAuthentication},
		{"admin route user", user, RoleRestricted(shared.RoleAdmin), Deny},
		{"admin route admin", admin, RoleRestricted(shared.RoleAdmin), Permit},
		{"user route admin", admin, RoleRestricted(shared.RoleUser), Deny},
		{"user route user", user, RoleRestricted(shared.RoleUser), Permit},
		{"unknown role required", admin, RoleRestricted(shared.RoleUnknown), Deny},
		{"session without role", broken, AuthenticatedOnly(), RequireAuthentication},
		{"zero classification", admin, Classification{}, Deny},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Authorize(tc.sess, tc.c))
		})
	}
}

func TestDecisionAndClassificationStrings(t *testing.T) {
	assert.Equal(t, "permit", Permit.String())
	assert.Equal(t, "deny", Deny.String())
	assert.Equal(t, "require_authentication", RequireAuthentication.String())
	assert.Equal(t, "role:ADMIN", RoleRestricted(shared.RoleAdmin).String())
	assert.Equal(t, "public", Public().String())
	assert.Equal(t, "invalid", Classification{}.String())
}
