package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTenantProvisioned audits a tenant right after registration.
	TaskTenantProvisioned = "tenant:provisioned"
	// TaskTenantAuditSweep audits every tenant in the directory.
	TaskTenantAuditSweep = "tenant:audit-sweep"
)

// TenantProvisionedPayload identifies a freshly provisioned tenant.
type TenantProvisionedPayload struct {
	Schema      string `json:"schema"`
	AdminUserID int64  `json:"admin_user_id"`
}

// NewTenantProvisionedTask constructs an Asynq task for the tenant audit.
func NewTenantProvisionedTask(payload TenantProvisionedPayload) (*asynq.Task, error) {
	if payload.Schema == "" {
		return nil, fmt.Errorf("jobs: tenant schema required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTenantProvisioned, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewTenantAuditSweepTask constructs the periodic sweep task.
func NewTenantAuditSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTenantAuditSweep, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(1))
}
