package authz

import "strings"

// Role identifies a coarse permission grouping assigned to a subject.
// The set is closed; ParseRole maps anything else to RoleUnknown.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleViewer     Role = "viewer"
	RoleAuditor    Role = "auditor"

	// RoleUnknown is returned for strings outside the closed set. It
	// carries no permissions anywhere in the engine.
	RoleUnknown Role = ""
)

// Permission is an atomic capability serialized as "<resource>:<verb>".
type Permission string

const (
	PermClaimView    Permission = "claim:view"
	PermClaimCreate  Permission = "claim:create"
	PermClaimEdit    Permission = "claim:edit"
	PermClaimDelete  Permission = "claim:delete"
	PermClaimApprove Permission = "claim:approve"

	PermMemberView   Permission = "member:view"
	PermMemberCreate Permission = "member:create"
	PermMemberEdit   Permission = "member:edit"
	PermMemberDelete Permission = "member:delete"

	PermPolicyView   Permission = "policy:view"
	PermPolicyCreate Permission = "policy:create"
	PermPolicyEdit   Permission = "policy:edit"
	PermPolicyDelete Permission = "policy:delete"

	PermAdminView         Permission = "admin:view"
	PermAdminManageUsers  Permission = "admin:manage_users"
	PermAdminManageRoles  Permission = "admin:manage_roles"
	PermAdminViewAudit    Permission = "admin:view_audit"
	PermAdminSystemConfig Permission = "admin:system_config"

	PermAnalyticsView   Permission = "analytics:view"
	PermAnalyticsExport Permission = "analytics:export"
)

var allPermissions = []Permission{
	PermClaimView, PermClaimCreate, PermClaimEdit, PermClaimDelete, PermClaimApprove,
	PermMemberView, PermMemberCreate, PermMemberEdit, PermMemberDelete,
	PermPolicyView, PermPolicyCreate, PermPolicyEdit, PermPolicyDelete,
	PermAdminView, PermAdminManageUsers, PermAdminManageRoles, PermAdminViewAudit, PermAdminSystemConfig,
	PermAnalyticsView, PermAnalyticsExport,
}

var knownRoles = map[Role]struct{}{
	RoleSuperAdmin: {},
	RoleAdmin:      {},
	RoleUser:       {},
	RoleViewer:     {},
	RoleAuditor:    {},
}

var knownPermissions = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(allPermissions))
	for _, p := range allPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// ParseRole maps a string onto the closed role set. Unknown strings yield
// (RoleUnknown, false) instead of an error so callers stay fail-closed.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownRoles[r]; ok {
		return r, true
	}
	return RoleUnknown, false
}

// ParsePermission is the total parse function for permission strings.
// Unknown strings yield ok=false; they never panic or error.
func ParsePermission(s string) (Permission, bool) {
	p := Permission(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownPermissions[p]; ok {
		return p, true
	}
	return Permission(""), false
}

// AllPermissions returns every known permission. The slice is a copy.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// String implements fmt.Stringer.
func (p Permission) String() string { return string(p) }

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }
