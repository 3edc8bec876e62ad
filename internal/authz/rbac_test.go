package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePermissionTotal(t *testing.T) {
	perm, ok := ParsePermission("claim:approve")
	require.True(t, ok)
	assert.Equal(t, PermClaimApprove, perm)

	_, ok = ParsePermission("claim:launch")
	assert.False(t, ok)

	perm, ok = ParsePermission("  Claim:View ")
	require.True(t, ok)
	assert.Equal(t, PermClaimView, perm)
}

func TestParseRoleUnknown(t *testing.T) {
	_, ok := ParseRole("root")
	assert.False(t, ok)

	role, ok := ParseRole("ADMIN")
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, role)
}

func TestHasPermissionDirect(t *testing.T) {
	a := NewAuthority()

	assert.True(t, a.HasPermission([]Role{RoleViewer}, PermClaimView))
	assert.False(t, a.HasPermission([]Role{RoleViewer}, PermClaimEdit))
	assert.True(t, a.HasPermission([]Role{RoleSuperAdmin}, PermAdminSystemConfig))
}

func TestHasPermissionUnknownRole(t *testing.T) {
	a := NewAuthority()

	assert.False(t, a.HasPermission([]Role{Role("ghost")}, PermClaimView))
	assert.False(t, a.HasPermission(nil, PermClaimView))
}

func TestHasPermissionOneHopInheritance(t *testing.T) {
	a := NewAuthority()

	// viewer permissions reach user through inheritance.
	for p := range a.PermissionClosure([]Role{RoleViewer}) {
		assert.True(t, a.HasPermission([]Role{RoleUser}, p), "user should inherit %s", p)
	}

	// auditor-only permission does not leak to other roles.
	assert.False(t, a.HasPermission([]Role{RoleUser}, PermAdminViewAudit))
	assert.True(t, a.HasPermission([]Role{RoleAuditor}, PermAdminViewAudit))
}

func TestPermissionClosureUnion(t *testing.T) {
	a := NewAuthority()

	closure := a.PermissionClosure([]Role{RoleUser, RoleAuditor})
	assert.Contains(t, closure, PermClaimCreate)
	assert.Contains(t, closure, PermAdminViewAudit)
	assert.NotContains(t, closure, PermClaimApprove)

	assert.Empty(t, a.PermissionClosure([]Role{Role("ghost")}))
}

func TestCanAccessFailClosed(t *testing.T) {
	a := NewAuthority()

	assert.True(t, a.CanAccess([]Role{RoleAdmin}, "claim", "approve"))
	assert.True(t, a.CanAccess([]Role{RoleAdmin}, "Claim", "VIEW"))
	assert.False(t, a.CanAccess([]Role{RoleAdmin}, "claim", "teleport"))
	assert.False(t, a.CanAccess([]Role{RoleAdmin}, "spaceship", "view"))
}

func TestGrantRevokePermission(t *testing.T) {
	a := NewAuthority()

	require.False(t, a.HasPermission([]Role{RoleAuditor}, PermAnalyticsExport))
	a.GrantPermission(RoleAuditor, PermAnalyticsExport)
	assert.True(t, a.HasPermission([]Role{RoleAuditor}, PermAnalyticsExport))

	a.RevokePermission(RoleAuditor, PermAnalyticsExport)
	assert.False(t, a.HasPermission([]Role{RoleAuditor}, PermAnalyticsExport))
}
