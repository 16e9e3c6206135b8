package shared

// Seed roles present in every tenant.
const (
	RoleAdmin    = "Admin"
	RoleManager  = "Manager"
	RoleEmployee = "Employee"
)

// DefaultRoles lists the roles created for every new tenant.
func DefaultRoles() []string {
	return []string{RoleAdmin, RoleManager, RoleEmployee}
}

// Core security-model permissions referenced directly by code.
const (
	PermReadUser       = "read_user"
	PermReadAnyUser    = "read_any_user"
	PermReadRole       = "read_role"
	PermReadPermission = "read_permission"
	PermManageUserRole = "manage_user_roles"
)
