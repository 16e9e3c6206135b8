package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/taskeri/taskeri/internal/jobs"
	"github.com/taskeri/taskeri/internal/provisioning"
	"github.com/taskeri/taskeri/internal/tenancy"
)

// ErrPartialTenant reports a tenant whose seeded security model is incomplete.
var ErrPartialTenant = errors.New("jobs: tenant seed incomplete")

// TenantAuditor inspects one tenant's seeded rows.
type TenantAuditor interface {
	Audit(ctx context.Context, ns tenancy.Namespace) (provisioning.Report, error)
}

// SchemaLister enumerates provisioned tenant schemas.
type SchemaLister interface {
	Schemas(ctx context.Context) ([]string, error)
}

// TenantAuditJob verifies tenants after provisioning and on a schedule.
type TenantAuditJob struct {
	Auditor   TenantAuditor
	Directory SchemaLister
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewTenantAuditJob constructs the job handler.
func NewTenantAuditJob(auditor TenantAuditor, directory SchemaLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *TenantAuditJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantAuditJob{Auditor: auditor, Directory: directory, Logger: logger, Metrics: metrics}
}

// HandleProvisioned audits the tenant named in the task payload. An incomplete tenant is
// returned as an error so Asynq retries while the registration transaction settles.
func (j *TenantAuditJob) HandleProvisioned(ctx context.Context, task *asynq.Task) error {
	var payload TenantProvisionedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	ns, err := tenancy.ParseNamespace(payload.Schema)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskTenantProvisioned)
	return tracker.End(j.audit(ctx, ns))
}

// HandleSweep audits every tenant in the directory and reports the incomplete ones.
func (j *TenantAuditJob) HandleSweep(ctx context.Context, _ *asynq.Task) error {
	if j.Directory == nil {
		return fmt.Errorf("jobs: tenant directory not configured: %w", asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskTenantAuditSweep)
	schemas, err := j.Directory.Schemas(ctx)
	if err != nil {
		return tracker.End(fmt.Errorf("list tenants: %w", err))
	}
	var errs []error
	for _, schema := range schemas {
		if err := ctx.Err(); err != nil {
			return tracker.End(err)
		}
		ns, err := tenancy.ParseNamespace(schema)
		if err != nil {
			j.Logger.Warn("skip tenant with invalid schema", slog.String("tenant", schema))
			continue
		}
		if err := j.audit(ctx, ns); err != nil {
			errs = append(errs, err)
		}
	}
	j.Logger.Info("tenant audit sweep complete",
		slog.Int("tenants", len(schemas)),
		slog.Int("failed", len(errs)),
	)
	return tracker.End(errors.Join(errs...))
}

func (j *TenantAuditJob) audit(ctx context.Context, ns tenancy.Namespace) error {
	report, err := j.Auditor.Audit(ctx, ns)
	if err != nil {
		j.Logger.Error("tenant audit", slog.String("tenant", ns.String()), slog.Any("error", err))
		j.Metrics.ObserveTenantAudit("error")
		return err
	}
	if !report.Healthy() {
		j.Logger.Warn("partial tenant detected",
			slog.String("tenant", ns.String()),
			slog.Int("permissions", report.Permissions),
			slog.Int("roles", report.Roles),
			slog.Int("admin_permissions", report.AdminPermissions),
			slog.Int("admins", report.Admins),
		)
		j.Metrics.ObserveTenantAudit("partial")
		return fmt.Errorf("%w: %s", ErrPartialTenant, ns)
	}
	j.Metrics.ObserveTenantAudit("healthy")
	j.Logger.Debug("tenant audit ok", slog.String("tenant", ns.String()))
	return nil
}
