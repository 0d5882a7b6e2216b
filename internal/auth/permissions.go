package auth

import "slices"

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermBlogRead      Permission = "blog:read"
	PermBlogReadDraft Permission = "blog:read:draft"
	PermBlogManage    Permission = "blog:manage"
	PermCommentWrite  Permission = "comment:write"
	PermLikeWrite     Permission = "like:write"
	PermProfileManage Permission = "profile:manage"
	PermUserManageAll Permission = "user:manage:all"
	PermAuditRead     Permission = "audit:read"
	PermSystemAdmin   Permission = "system:admin"
)

var readerPermissions = []Permission{
	PermBlogRead,
	PermCommentWrite,
	PermLikeWrite,
	PermProfileManage,
}

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleBuyer:  readerPermissions,
	RoleSeller: readerPermissions,
	RoleAdmin: append(slices.Clone(readerPermissions),
		PermBlogReadDraft,
		PermBlogManage,
		PermUserManageAll,
		PermAuditRead,
		PermSystemAdmin,
	),
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	return slices.Contains(rolePermissions[role], perm)
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	return slices.Clone(rolePermissions[role])
}

// RolesWith returns the set of roles holding perm, in ValidRoles order.
// Routes use it to build the allowed set for the authorization step.
func RolesWith(perm Permission) RoleSet {
	var set RoleSet
	for _, r := range ValidRoles {
		if HasPermission(r, perm) {
			set = append(set, r)
		}
	}
	return set
}
