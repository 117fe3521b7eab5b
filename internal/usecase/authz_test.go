package usecase

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/gebeya/internal/domain"
)

func testWorld(t *testing.T) *world {
	t.Helper()
	authz, err := NewAuthorizer()
	require.NoError(t, err)
	return newWorld(authz)
}

func TestAuthorizerRolePermissions(t *testing.T) {
	authz, err := NewAuthorizer()
	require.NoError(t, err)

	cases := []struct {
		role     domain.Role
		obj, act string
		allowed  bool
	}{
		{domain.RoleAdmin, "currency", "write", true},
		{domain.RoleAdmin, "payment", "verify", true},
		{domain.RoleSeller, "promotion", "write", true},
		{domain.RoleSeller, "currency", "write", false},
		{domain.RoleSeller, "payment", "initiate", false},
		{domain.RoleCustomer, "order", "create", true},
		{domain.RoleCustomer, "payment", "initiate", true},
		{domain.RoleCustomer, "product", "write", false},
		{domain.RoleCustomer, "order", "update_status", false},
		{domain.RoleCustomer, "profile", "write", true},
		{domain.RoleSeller, "profile", "write", true},
		{domain.Role("guest"), "profile", "write", false},
	}
	for _, c := range cases {
		actor := domain.Actor{ID: uuid.New(), Role: c.role}
		assert.Equal(t, c.allowed, authz.Can(actor, c.obj, c.act), "%s %s %s", c.role, c.act, c.obj)
	}
}

func TestAuthorizerRequire(t *testing.T) {
	authz, err := NewAuthorizer()
	require.NoError(t, err)

	assert.ErrorIs(t, authz.Require(domain.Actor{Role: domain.RoleAdmin}, "tax", "write"), domain.ErrUnauthorized)
	assert.ErrorIs(t, authz.Require(domain.Actor{ID: uuid.New(), Role: domain.RoleCustomer}, "tax", "write"), domain.ErrForbidden)
	assert.NoError(t, authz.Require(domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}, "tax", "write"))
}
