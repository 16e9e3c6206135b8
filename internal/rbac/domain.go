package rbac

// Role is one of the tenant's roles. Provisioning seeds Admin, Manager and Employee.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Permission is a catalog entry such as read_any_task.
type Permission struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserRole is a user's active role. A user holds at most one.
type UserRole struct {
	UserID   int64  `json:"user_id"`
	RoleID   int64  `json:"role_id"`
	RoleName string `json:"role_name"`
}
