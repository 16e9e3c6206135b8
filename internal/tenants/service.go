package tenants

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/taskeri/taskeri/internal/platform/httpx"
	"github.com/taskeri/taskeri/internal/provisioning"
	"github.com/taskeri/taskeri/internal/shared"
	"github.com/taskeri/taskeri/internal/tenancy"
	"github.com/taskeri/taskeri/jobs"
)

// DirectoryPort is the directory surface used during registration.
type DirectoryPort interface {
	FindByEmail(ctx context.Context, email string) (TenantUser, error)
	SchemaTaken(ctx context.Context, schema string) (bool, error)
	Create(ctx context.Context, email, schema string) (TenantUser, error)
}

// Provisioner seeds a new tenant namespace.
type Provisioner interface {
	Provision(ctx context.Context, req provisioning.Request) (provisioning.Result, error)
}

// AuditScheduler queues the post-registration tenant audit.
type AuditScheduler interface {
	EnqueueTenantProvisioned(ctx context.Context, payload jobs.TenantProvisionedPayload) error
}

// Registrar registers tenants.
type Registrar struct {
	directory   DirectoryPort
	provisioner Provisioner
	audits      AuditScheduler
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewRegistrar constructs a Registrar. audits may be nil.
func NewRegistrar(directory DirectoryPort, provisioner Provisioner, audits AuditScheduler, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{
		directory:   directory,
		provisioner: provisioner,
		audits:      audits,
		validate:    newValidator(),
		logger:      logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("tenant_name", func(fl validator.FieldLevel) bool {
		return tenancy.ValidTenantName(fl.Field().String())
	})
	return v
}

// Register provisions a tenant for in and records it in the directory. An email that already
// owns a tenant is rejected before any namespace is created.
func (s *Registrar) Register(ctx context.Context, in RegisterInput) (TenantUser, error) {
	in.Email = shared.NormalizeEmail(in.Email)
	in.TenantSchema = strings.TrimSpace(in.TenantSchema)
	if err := s.validate.Struct(in); err != nil {
		return TenantUser{}, fmt.Errorf("%w: %s", httpx.ErrValidation, describe(err))
	}

	_, err := s.directory.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return TenantUser{}, shared.ErrDuplicateIdentity
	case !errors.Is(err, shared.ErrNotFound):
		return TenantUser{}, err
	}

	taken, err := s.directory.SchemaTaken(ctx, in.TenantSchema)
	if err != nil {
		return TenantUser{}, err
	}
	if taken {
		return TenantUser{}, shared.ErrTenantTaken
	}

	ns, err := tenancy.TenantNamespace(in.TenantSchema)
	if err != nil {
		return TenantUser{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	result, err := s.provisioner.Provision(ctx, provisioning.Request{
		Namespace: ns,
		Admin: provisioning.Admin{
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Password:  in.Password,
		},
	})
	if err != nil {
		return TenantUser{}, err
	}

	tu, err := s.directory.Create(ctx, in.Email, in.TenantSchema)
	if err != nil {
		s.logger.Error("tenant provisioned but directory insert failed",
			slog.String("tenant", ns.String()),
			slog.Any("error", err),
		)
		return TenantUser{}, err
	}

	if s.audits != nil {
		payload := jobs.TenantProvisionedPayload{Schema: ns.String(), AdminUserID: result.AdminUserID}
		if err := s.audits.EnqueueTenantProvisioned(ctx, payload); err != nil {
			s.logger.Warn("enqueue tenant audit", slog.String("tenant", ns.String()), slog.Any("error", err))
		}
	}
	s.logger.Info("tenant registered", slog.String("tenant", ns.String()), slog.Int64("tenant_id", tu.ID))
	return tu, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(fields, "; ")
}
