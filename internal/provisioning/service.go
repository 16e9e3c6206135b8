// Package provisioning creates tenant schemas and seeds their security model.
package provisioning

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskeri/taskeri/internal/platform/db"
	"github.com/taskeri/taskeri/internal/shared"
	"github.com/taskeri/taskeri/internal/tenancy"
)

//go:embed schema.sql
var tenantSchemaDDL string

// Namespaces creates and binds tenant namespaces. *tenancy.Resolver satisfies it.
type Namespaces interface {
	CreateNamespace(ctx context.Context, ns tenancy.Namespace) error
	Bind(ctx context.Context, ns tenancy.Namespace) (*tenancy.Session, error)
}

// Recorder counts provisioning outcomes.
type Recorder interface {
	ObserveProvisioning(stage, outcome string)
}

// Admin is the tenant's first user.
type Admin struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Request describes a tenant to provision.
type Request struct {
	Namespace tenancy.Namespace
	Admin     Admin
}

// Result describes a provisioned tenant.
type Result struct {
	Namespace   tenancy.Namespace
	AdminUserID int64
}

// Service provisions tenants.
type Service struct {
	namespaces Namespaces
	logger     *slog.Logger
	metrics    Recorder
	hashCost   int
}

// Option customises a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithMetrics attaches an outcome recorder.
func WithMetrics(m Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs a Service.
func NewService(namespaces Namespaces, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{namespaces: namespaces, logger: logger, hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provision creates req.Namespace if needed and seeds it in a single transaction: the
// permission catalog, the three default roles with their bindings, and the admin user.
// Every seed is conflict-tolerant so a retry after a partial failure converges.
func (s *Service) Provision(ctx context.Context, req Request) (Result, error) {
	res, err := s.provision(ctx, req)
	if err != nil {
		var perr *Error
		stage := "unknown"
		if errors.As(err, &perr) {
			stage = string(perr.Stage)
		}
		s.logger.Error("tenant provisioning failed",
			slog.String("tenant", req.Namespace.String()),
			slog.String("stage", stage),
			slog.Any("error", err),
		)
		s.observe(stage, "failed")
		return Result{}, err
	}
	s.logger.Info("tenant provisioned",
		slog.String("tenant", req.Namespace.String()),
		slog.Int64("admin_user_id", res.AdminUserID),
	)
	s.observe("", "ok")
	return res, nil
}

func (s *Service) provision(ctx context.Context, req Request) (Result, error) {
	ns := req.Namespace
	fail := func(stage Stage, err error) error {
		return &Error{Namespace: ns.String(), Stage: stage, Err: err}
	}
	if ns.IsZero() {
		return Result{}, fail(StageCreateNamespace, tenancy.ErrInvalidNamespace)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Admin.Password), s.hashCost)
	if err != nil {
		return Result{}, fail(StageCreateAdmin, err)
	}

	if err := s.namespaces.CreateNamespace(ctx, ns); err != nil {
		return Result{}, fail(StageCreateNamespace, err)
	}
	sess, err := s.namespaces.Bind(ctx, ns)
	if err != nil {
		return Result{}, fail(StageBind, err)
	}
	defer sess.Release()

	var adminID int64
	err = db.WithTx(ctx, sess, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, tenantSchemaDDL); err != nil {
			return fail(StageSchema, err)
		}
		if _, err := tx.Exec(ctx, seedPermissionsSQL, shared.PermissionCatalog()); err != nil {
			return fail(StageSeedPermissions, err)
		}
		if _, err := tx.Exec(ctx, seedRolesSQL, shared.DefaultRoles()); err != nil {
			return fail(StageSeedRoles, err)
		}
		for _, b := range defaultBindings() {
			if _, err := tx.Exec(ctx, bindPermissionsSQL, b.role, b.permissions); err != nil {
				return fail(StageBindPermissions, fmt.Errorf("%s: %w", b.role, err))
			}
		}
		email := shared.NormalizeEmail(req.Admin.Email)
		if err := tx.QueryRow(ctx, createAdminSQL, email, string(hash), req.Admin.FirstName, req.Admin.LastName).Scan(&adminID); err != nil {
			return fail(StageCreateAdmin, err)
		}
		if _, err := tx.Exec(ctx, assignRoleSQL, adminID, shared.RoleAdmin); err != nil {
			return fail(StageAssignAdmin, err)
		}
		return nil
	})
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			return Result{}, err
		}
		return Result{}, fail(StageCommit, err)
	}
	return Result{Namespace: ns, AdminUserID: adminID}, nil
}

func (s *Service) observe(stage, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveProvisioning(stage, outcome)
	}
}

type binding struct {
	role        string
	permissions []string
}

func defaultBindings() []binding {
	return []binding{
		{role: shared.RoleAdmin, permissions: shared.PermissionCatalog()},
		{role: shared.RoleManager, permissions: shared.ManagerScopes()},
		{role: shared.RoleEmployee, permissions: shared.EmployeeScopes()},
	}
}

const (
	seedPermissionsSQL = `INSERT INTO permissions (name) SELECT unnest($1::text[]) ON CONFLICT (name) DO NOTHING`
	seedRolesSQL       = `INSERT INTO roles (name) SELECT unnest($1::text[]) ON CONFLICT (name) DO NOTHING`
	bindPermissionsSQL = `INSERT INTO role_permissions (role_id, permission_id)
SELECT r.id, p.id FROM roles r JOIN permissions p ON p.name = ANY($2::text[])
WHERE r.name = $1
ON CONFLICT DO NOTHING`
	createAdminSQL = `INSERT INTO users (email, password_hash, first_name, last_name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = now()
RETURNING id`
	assignRoleSQL = `INSERT INTO user_roles (user_id, role_id)
SELECT $1, id FROM roles WHERE name = $2
ON CONFLICT (user_id) DO UPDATE SET role_id = EXCLUDED.role_id`
)
