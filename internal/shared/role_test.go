package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"ADMIN":      RoleAdmin,
		"USER":       RoleUser,
		"ROLE_ADMIN": RoleAdmin,
		"ROLE_USER":  RoleUser,
		" USER ":     RoleUser,
	}
	for raw, want := range cases {
		got, err := ParseRole(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParseRoleRejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{"", "admin", "ROLE_ROOT", "SUPERUSER", "ROLE_"} {
		role, err := ParseRole(raw)
		require.Error(t, err, raw)
		assert.Equal(t, RoleUnknown, role)
		assert.False(t, role.Valid())
	}
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "ADMIN", RoleAdmin.String())
	assert.Equal(t, "USER", RoleUser.String())
	assert.Equal(t, "UNKNOWN", RoleUnknown.String())
}
