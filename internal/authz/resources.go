package authz

import (
	"context"
	"fmt"

	"github.com/taskeri/taskeri/internal/platform/db"
)

// ResourceStore answers ownership questions about resource instances in the bound tenant.
type ResourceStore interface {
	TaskExists(ctx context.Context, taskID int64) (bool, error)
	TaskAssigned(ctx context.Context, taskID, userID int64) (bool, error)
	ProjectExists(ctx context.Context, projectID int64) (bool, error)
}

// PGResources implements ResourceStore over a request-bound connection.
type PGResources struct {
	conn db.DBTX
}

// NewPGResources constructs PGResources.
func NewPGResources(conn db.DBTX) *PGResources {
	return &PGResources{conn: conn}
}

func (p *PGResources) exists(ctx context.Context, sql string, args ...any) (bool, error) {
	var ok bool
	if err := p.conn.QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("authz: resource lookup: %w", err)
	}
	return ok, nil
}

// TaskExists reports whether the task exists.
func (p *PGResources) TaskExists(ctx context.Context, taskID int64) (bool, error) {
	return p.exists(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, taskID)
}

// TaskAssigned reports whether the user is assigned to the task.
func (p *PGResources) TaskAssigned(ctx context.Context, taskID, userID int64) (bool, error) {
	return p.exists(ctx, `SELECT EXISTS (SELECT 1 FROM task_assignments WHERE task_id = $1 AND user_id = $2)`, taskID, userID)
}

// ProjectExists reports whether the project exists.
func (p *PGResources) ProjectExists(ctx context.Context, projectID int64) (bool, error) {
	return p.exists(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, projectID)
}
