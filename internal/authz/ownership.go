package authz

import (
	"context"

	"github.com/taskeri/taskeri/internal/rbac"
	"github.com/taskeri/taskeri/internal/routes"
	"github.com/taskeri/taskeri/internal/shared"
)

// OwnershipRequest carries what a rule may consult.
type OwnershipRequest struct {
	UserID    int64
	Resource  routes.Resource
	Evaluator *rbac.Evaluator
	Resources ResourceStore
}

// OwnershipRule decides whether the caller may reach a resource it lacks a permission for.
type OwnershipRule func(ctx context.Context, req OwnershipRequest) (bool, error)

// OwnershipRules maps resource types to rules. Types without a rule use the fallback.
type OwnershipRules struct {
	rules    map[string]OwnershipRule
	fallback OwnershipRule
}

// NewOwnershipRules builds an empty rule set with the given fallback.
func NewOwnershipRules(fallback OwnershipRule) *OwnershipRules {
	return &OwnershipRules{rules: make(map[string]OwnershipRule), fallback: fallback}
}

// DefaultOwnership returns the built-in rules for tasks, projects and users. Anything else
// requires the Admin role.
func DefaultOwnership() *OwnershipRules {
	o := NewOwnershipRules(AdminOnly)
	o.Register("task", TaskOwnership)
	o.Register("project", ProjectOwnership)
	o.Register("user", UserOwnership)
	return o
}

// Register sets the rule for resourceType.
func (o *OwnershipRules) Register(resourceType string, rule OwnershipRule) {
	o.rules[resourceType] = rule
}

// Check runs the rule for req's resource type.
func (o *OwnershipRules) Check(ctx context.Context, req OwnershipRequest) (bool, error) {
	rule, ok := o.rules[req.Resource.Type]
	if !ok {
		rule = o.fallback
	}
	if rule == nil {
		return false, nil
	}
	return rule(ctx, req)
}

// TaskOwnership allows assignees of an existing task, and Admins or Managers.
func TaskOwnership(ctx context.Context, req OwnershipRequest) (bool, error) {
	exists, err := req.Resources.TaskExists(ctx, req.Resource.ID)
	if err != nil || !exists {
		return false, err
	}
	elevated, err := req.Evaluator.HasRole(ctx, req.UserID, shared.RoleAdmin, shared.RoleManager)
	if err != nil || elevated {
		return elevated, err
	}
	return req.Resources.TaskAssigned(ctx, req.Resource.ID, req.UserID)
}

// ProjectOwnership allows Admins or Managers on an existing project.
func ProjectOwnership(ctx context.Context, req OwnershipRequest) (bool, error) {
	exists, err := req.Resources.ProjectExists(ctx, req.Resource.ID)
	if err != nil || !exists {
		return false, err
	}
	return req.Evaluator.HasRole(ctx, req.UserID, shared.RoleAdmin, shared.RoleManager)
}

// UserOwnership allows callers on their own user record, or holders of read_any_user.
func UserOwnership(ctx context.Context, req OwnershipRequest) (bool, error) {
	if req.Resource.ID == req.UserID {
		return true, nil
	}
	return req.Evaluator.HasPermission(ctx, req.UserID, shared.PermReadAnyUser)
}

// AdminOnly allows Admins.
func AdminOnly(ctx context.Context, req OwnershipRequest) (bool, error) {
	return req.Evaluator.HasRole(ctx, req.UserID, shared.RoleAdmin)
}
