package rbac

import (
	"context"
	"fmt"

	"github.com/taskeri/taskeri/internal/platform/db"
)

// Store answers role-binding questions against the tenant bound to its connection.
type Store interface {
	UserHasPermission(ctx context.Context, userID int64, permission string) (bool, error)
	UserHasRole(ctx context.Context, userID int64, roles ...string) (bool, error)
}

// PGStore queries the role graph of whichever schema the connection's search_path points at.
type PGStore struct {
	conn db.DBTX
}

// NewPGStore constructs a PGStore over a request-bound connection.
func NewPGStore(conn db.DBTX) *PGStore {
	return &PGStore{conn: conn}
}

const userHasPermissionSQL = `SELECT EXISTS (
	SELECT 1
	FROM user_roles ur
	JOIN role_permissions rp ON rp.role_id = ur.role_id
	JOIN permissions p ON p.id = rp.permission_id
	WHERE ur.user_id = $1 AND p.name = $2
)`

const userHasRoleSQL = `SELECT EXISTS (
	SELECT 1
	FROM user_roles ur
	JOIN roles r ON r.id = ur.role_id
	WHERE ur.user_id = $1 AND r.name = ANY($2)
)`

// UserHasPermission reports whether any role of the user is bound to permission.
func (s *PGStore) UserHasPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	var ok bool
	if err := s.conn.QueryRow(ctx, userHasPermissionSQL, userID, permission).Scan(&ok); err != nil {
		return false, fmt.Errorf("rbac: permission lookup: %w", err)
	}
	return ok, nil
}

// UserHasRole reports whether the user holds one of roles.
func (s *PGStore) UserHasRole(ctx context.Context, userID int64, roles ...string) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	var ok bool
	if err := s.conn.QueryRow(ctx, userHasRoleSQL, userID, roles).Scan(&ok); err != nil {
		return false, fmt.Errorf("rbac: role lookup: %w", err)
	}
	return ok, nil
}
