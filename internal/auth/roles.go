package auth

// Permission actions checked by the API layer
const (
	PermissionRead   = "read"
	PermissionWrite  = "write"
	PermissionDelete = "delete"
	PermissionAdmin  = "admin"
)

// Role names assignable to API keys in configuration
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleReadonly = "readonly"
)

// rolePermissions fixes what each role may do. Keys carry exactly one
// role from configuration; there is no dynamic role management.
var rolePermissions = map[string]map[string]bool{
	RoleAdmin: {
		PermissionRead:   true,
		PermissionWrite:  true,
		PermissionDelete: true,
		PermissionAdmin:  true,
	},
	RoleOperator: {
		PermissionRead:   true,
		PermissionWrite:  true,
		PermissionDelete: true,
	},
	RoleReadonly: {
		PermissionRead: true,
	},
}

// NormalizeRole maps the empty role to readonly, the default for
// configured keys that do not name one.
func NormalizeRole(role string) string {
	if role == "" {
		return RoleReadonly
	}
	return role
}

// ValidRole reports whether the name is an assignable role. The empty
// string is accepted and treated as readonly.
func ValidRole(role string) bool {
	_, ok := rolePermissions[NormalizeRole(role)]
	return ok
}

// RoleAllows reports whether a role permits an action.
func RoleAllows(role, action string) bool {
	return rolePermissions[NormalizeRole(role)][action]
}

// Roles returns the assignable role names.
func Roles() []string {
	return []string{RoleAdmin, RoleOperator, RoleReadonly}
}
