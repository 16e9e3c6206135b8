package roles

import "github.com/taskeri/taskeri/internal/rbac"

// Role is the role listing returned by the API.
type Role = rbac.Role

// RoleDetail is a role with the permissions bound to it.
type RoleDetail struct {
	Role
	Permissions []rbac.Permission `json:"permissions"`
}
