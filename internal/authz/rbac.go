package authz

import (
	"fmt"
	"strings"
	"sync"
)

// rolePermissionSet holds the permissions granted directly to a role and the
// roles it inherits from. Inheritance is resolved at query time and is
// deliberately one hop deep: role -> inherited roles -> their direct
// permissions. Deeper chains are out of scope.
type rolePermissionSet struct {
	direct   map[Permission]struct{}
	inherits []Role
}

// Authority owns the static role/permission table and answers coarse
// permission checks. The table is built once at construction; the guarded
// Grant/Revoke extension API is the only mutation path.
type Authority struct {
	mu    sync.RWMutex
	roles map[Role]*rolePermissionSet
}

// NewAuthority builds the Authority with the built-in role table.
func NewAuthority() *Authority {
	grant := func(perms ...Permission) map[Permission]struct{} {
		m := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			m[p] = struct{}{}
		}
		return m
	}

	return &Authority{
		roles: map[Role]*rolePermissionSet{
			RoleSuperAdmin: {
				direct: grant(allPermissions...),
			},
			RoleAdmin: {
				direct: grant(
					PermClaimView, PermClaimCreate, PermClaimEdit, PermClaimDelete, PermClaimApprove,
					PermMemberView, PermMemberCreate, PermMemberEdit, PermMemberDelete,
					PermPolicyView, PermPolicyCreate, PermPolicyEdit, PermPolicyDelete,
					PermAdminView, PermAdminManageUsers,
					PermAnalyticsView, PermAnalyticsExport,
				),
				inherits: []Role{RoleUser, RoleViewer},
			},
			RoleUser: {
				direct: grant(
					PermClaimView, PermClaimCreate, PermClaimEdit,
					PermMemberView, PermMemberCreate, PermMemberEdit,
					PermPolicyView,
					PermAnalyticsView,
				),
				inherits: []Role{RoleViewer},
			},
			RoleViewer: {
				direct: grant(PermClaimView, PermMemberView, PermPolicyView),
			},
			RoleAuditor: {
				direct: grant(
					PermClaimView, PermMemberView, PermPolicyView,
					PermAdminViewAudit, PermAnalyticsView,
				),
			},
		},
	}
}

// HasPermission reports whether any of the given roles carries the
// permission, directly or via one-hop inheritance. Unknown roles carry
// nothing.
func (a *Authority) HasPermission(roles []Role, permission Permission) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, role := range roles {
		set, ok := a.roles[role]
		if !ok {
			continue
		}
		if _, ok := set.direct[permission]; ok {
			return true
		}
		for _, inherited := range set.inherits {
			parent, ok := a.roles[inherited]
			if !ok {
				continue
			}
			if _, ok := parent.direct[permission]; ok {
				return true
			}
		}
	}
	return false
}

// PermissionClosure returns the union of direct and one-hop-inherited
// permissions across the given roles.
func (a *Authority) PermissionClosure(roles []Role) map[Permission]struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()

	closure := make(map[Permission]struct{})
	for _, role := range roles {
		set, ok := a.roles[role]
		if !ok {
			continue
		}
		for p := range set.direct {
			closure[p] = struct{}{}
		}
		for _, inherited := range set.inherits {
			parent, ok := a.roles[inherited]
			if !ok {
				continue
			}
			for p := range parent.direct {
				closure[p] = struct{}{}
			}
		}
	}
	return closure
}

// CanAccess builds "<resourceType>:<action>" and checks it as a permission.
// Unknown permission strings are denied rather than reported as errors.
func (a *Authority) CanAccess(roles []Role, resourceType, action string) bool {
	perm, ok := ParsePermission(strings.ToLower(fmt.Sprintf("%s:%s", resourceType, action)))
	if !ok {
		return false
	}
	return a.HasPermission(roles, perm)
}

// GrantPermission adds a permission to a role's direct set. Unknown roles
// get a fresh empty set first.
func (a *Authority) GrantPermission(role Role, permission Permission) {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, ok := a.roles[role]
	if !ok {
		set = &rolePermissionSet{direct: make(map[Permission]struct{})}
		a.roles[role] = set
	}
	set.direct[permission] = struct{}{}
}

// RevokePermission removes a permission from a role's direct set.
func (a *Authority) RevokePermission(role Role, permission Permission) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if set, ok := a.roles[role]; ok {
		delete(set.direct, permission)
	}
}
