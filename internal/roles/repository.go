package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskeri/taskeri/internal/rbac"
	"github.com/taskeri/taskeri/internal/shared"
	"github.com/taskeri/taskeri/internal/tenancy"
)

// pgForeignKeyViolation is SQLSTATE foreign_key_violation.
const pgForeignKeyViolation = "23503"

// Repository provides PostgreSQL backed persistence for the tenant bound to the request.
type Repository struct {
	conn tenancy.ConnFunc
}

// NewRepository constructs a repository.
func NewRepository(conn tenancy.ConnFunc) *Repository {
	return &Repository{conn: conn}
}

// ListRoles returns all roles.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("roles: list: %w", err)
	}
	defer rows.Close()

	roles := make([]Role, 0, 3)
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("roles: scan: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRole fetches a role by ID.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return Role{}, err
	}
	var role Role
	err = conn.QueryRow(ctx, `SELECT id, name FROM roles WHERE id = $1`, id).Scan(&role.ID, &role.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	if err != nil {
		return Role{}, fmt.Errorf("roles: get: %w", err)
	}
	return role, nil
}

// RolePermissions lists permissions bound to a role.
func (r *Repository) RolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, `SELECT p.id, p.name
FROM role_permissions rp
JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = $1
ORDER BY p.name`, roleID)
	if err != nil {
		return nil, fmt.Errorf("roles: role permissions: %w", err)
	}
	defer rows.Close()

	perms := make([]rbac.Permission, 0)
	for rows.Next() {
		var p rbac.Permission
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("roles: scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// UserRoles lists the roles held by a user.
func (r *Repository) UserRoles(ctx context.Context, userID int64) ([]rbac.UserRole, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, `SELECT ur.user_id, r.id, r.name
FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
WHERE ur.user_id = $1
ORDER BY r.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("roles: user roles: %w", err)
	}
	defer rows.Close()

	out := make([]rbac.UserRole, 0, 1)
	for rows.Next() {
		var ur rbac.UserRole
		if err := rows.Scan(&ur.UserID, &ur.RoleID, &ur.RoleName); err != nil {
			return nil, fmt.Errorf("roles: scan user role: %w", err)
		}
		out = append(out, ur)
	}
	return out, rows.Err()
}

// AssignRole gives a user roleID, replacing the role the user held before.
func (r *Repository) AssignRole(ctx context.Context, userID, roleID int64) error {
	conn, err := r.conn(ctx)
	if err != nil {
		return err
	}
	tag, err := conn.Exec(ctx, `INSERT INTO user_roles (user_id, role_id)
SELECT $1, r.id FROM roles r WHERE r.id = $2
ON CONFLICT (user_id) DO UPDATE SET role_id = EXCLUDED.role_id`, userID, roleID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return shared.ErrNotFound
		}
		return fmt.Errorf("roles: assign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RemoveRole removes a role from a user.
func (r *Repository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	conn, err := r.conn(ctx)
	if err != nil {
		return err
	}
	tag, err := conn.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return fmt.Errorf("roles: remove: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
