package shared

// PermissionCatalog lists every permission seeded into a new tenant.
func PermissionCatalog() []string {
	return []string{
		// Company
		"read_company", "create_company", "update_company", "delete_company",
		// Role
		PermReadRole, "create_role", "update_role", "delete_role",
		// User
		PermReadUser, PermReadAnyUser, "create_user", "update_user", "update_any_user", "delete_user",
		PermManageUserRole,
		// Tasks
		"read_task", "read_any_task", "read_any_user_task",
		"create_task", "update_task", "update_any_task",
		"delete_own_task", "delete_any_task",
		"view_statistics",
		// Permissions
		PermReadPermission, "create_permission", "update_permission", "delete_permission",
		// Comments
		"create_comment", "read_comment", "update_comment", "delete_comment",
		// Attendance
		"check_in", "check_out", "read_own_attendance", "read_any_user_attendance",
		// Company settings
		"create_company_settings", "read_company_settings", "update_company_settings", "delete_company_settings",
		// Departments
		"read_department", "create_department", "update_department", "delete_department",
		// Attachments
		"read_attachment", "create_attachment", "update_attachment", "delete_attachment",
		// Invoices
		"read_invoice", "create_invoice", "update_invoice", "delete_invoice",
		// Leave requests
		"create_leave_request", "read_leave_request", "update_leave_status",
		"delete_leave_request", "read_any_user_leave_request",
		// Projects
		"read_project", "create_project", "update_project", "update_any_project",
		"delete_project", "delete_any_project",
		"manage_role_permissions",
		// Teams
		"read_team", "create_team", "update_team", "delete_team",
		// Time logs
		"create_time_log", "read_time_log", "read_own_time_log", "read_user_time_log",
		"update_time_log", "update_own_time_log", "delete_time_log", "delete_own_time_log",
		// Profiles
		"create_user_profile", "read_own_profile", "read_any_profile",
		"update_own_profile", "update_any_profile",
		"delete_own_profile", "delete_any_profile",
		// Project membership
		"assign_user_to_project", "remove_user_from_project",
		"read_project_users", "read_user_projects",
	}
}

// ManagerScopes lists the permissions bound to the Manager role.
func ManagerScopes() []string {
	return []string{
		"read_company",
		PermReadRole,
		PermReadUser, PermReadAnyUser, "update_user",
		"read_task", "read_any_task", "read_any_user_task",
		"create_task", "update_task", "update_any_task", "delete_own_task",
		"read_comment", "create_comment", "update_comment", "delete_comment",
		"read_any_user_attendance",
		"read_department", "create_department", "update_department", "delete_department",
		"read_attachment",
		"read_leave_request", "update_leave_status", "read_any_user_leave_request",
		"read_project", "create_project", "update_project", "update_any_project", "delete_project",
		"read_team", "create_team", "update_team", "delete_team",
		"read_time_log", "read_user_time_log",
		"read_any_profile", "update_any_profile",
		"assign_user_to_project", "remove_user_from_project", "read_project_users", "read_user_projects",
		"view_statistics",
	}
}

// EmployeeScopes lists the permissions bound to the Employee role.
func EmployeeScopes() []string {
	return []string{
		"read_task", "create_task", "update_task", "delete_own_task",
		"read_comment", "create_comment", "update_comment",
		"check_in", "check_out", "read_own_attendance",
		"create_leave_request", "read_leave_request", "delete_leave_request",
		"create_time_log", "read_own_time_log", "update_own_time_log", "delete_own_time_log",
		"create_user_profile", "read_own_profile", "update_own_profile", "delete_own_profile",
		"read_user_projects",
	}
}
