package provisioning

import (
	"context"
	"fmt"

	"github.com/taskeri/taskeri/internal/shared"
	"github.com/taskeri/taskeri/internal/tenancy"
)

// Binder binds a session to a tenant namespace.
type Binder interface {
	Bind(ctx context.Context, ns tenancy.Namespace) (*tenancy.Session, error)
}

// Report summarises the seeded security model of one tenant.
type Report struct {
	Namespace        string `json:"namespace"`
	Permissions      int    `json:"permissions"`
	Roles            int    `json:"roles"`
	AdminPermissions int    `json:"admin_permissions"`
	Admins           int    `json:"admins"`
}

// Healthy reports whether the tenant carries the full catalog, every default role, a fully
// bound Admin role and at least one Admin user.
func (r Report) Healthy() bool {
	catalog := len(shared.PermissionCatalog())
	return r.Permissions >= catalog &&
		r.Roles >= len(shared.DefaultRoles()) &&
		r.AdminPermissions >= catalog &&
		r.Admins > 0
}

// Auditor inspects provisioned tenants.
type Auditor struct {
	binder Binder
}

// NewAuditor constructs an Auditor.
func NewAuditor(binder Binder) *Auditor {
	return &Auditor{binder: binder}
}

const auditSQL = `SELECT
    (SELECT count(*) FROM permissions),
    (SELECT count(*) FROM roles),
    (SELECT count(*) FROM role_permissions rp JOIN roles r ON r.id = rp.role_id WHERE r.name = $1),
    (SELECT count(*) FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE r.name = $1)`

// Audit counts the seeded rows of ns.
func (a *Auditor) Audit(ctx context.Context, ns tenancy.Namespace) (Report, error) {
	sess, err := a.binder.Bind(ctx, ns)
	if err != nil {
		return Report{}, err
	}
	defer sess.Release()

	report := Report{Namespace: ns.String()}
	if err := sess.Conn().QueryRow(ctx, auditSQL, shared.RoleAdmin).Scan(
		&report.Permissions, &report.Roles, &report.AdminPermissions, &report.Admins,
	); err != nil {
		return Report{}, fmt.Errorf("provisioning: audit %s: %w", ns, err)
	}
	return report, nil
}
