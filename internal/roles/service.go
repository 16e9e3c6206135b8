package roles

import (
	"context"

	"github.com/taskeri/taskeri/internal/rbac"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	RolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error)
	UserRoles(ctx context.Context, userID int64) ([]rbac.UserRole, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
}

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns a role.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// RoleDetail returns a role together with its bound permissions.
func (s *Service) RoleDetail(ctx context.Context, id int64) (RoleDetail, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}
	perms, err := s.repo.RolePermissions(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}
	return RoleDetail{Role: role, Permissions: perms}, nil
}

// UserRoles lists a user's roles.
func (s *Service) UserRoles(ctx context.Context, userID int64) ([]rbac.UserRole, error) {
	return s.repo.UserRoles(ctx, userID)
}

// AssignRole sets the user's role. A user holds one role at a time.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	return s.repo.AssignRole(ctx, userID, roleID)
}

// RemoveRole revokes a role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	return s.repo.RemoveRole(ctx, userID, roleID)
}
