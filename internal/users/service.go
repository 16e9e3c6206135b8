package users

import (
	"context"

	"github.com/taskeri/taskeri/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	RoleNames(ctx context.Context, userID int64) ([]string, error)
}

// PermissionLister resolves a user's effective permissions.
type PermissionLister interface {
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	perms PermissionLister
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, perms PermissionLister) *Service {
	return &Service{repo: repo, perms: perms}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// Profile assembles the caller's profile.
func (s *Service) Profile(ctx context.Context, id shared.Identity) (Profile, error) {
	user, err := s.repo.GetUser(ctx, id.UserID)
	if err != nil {
		return Profile{}, err
	}
	roles, err := s.repo.RoleNames(ctx, id.UserID)
	if err != nil {
		return Profile{}, err
	}
	perms, err := s.perms.EffectivePermissions(ctx, id.UserID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: user, TenantName: id.TenantName, Roles: roles, Permissions: perms}, nil
}
