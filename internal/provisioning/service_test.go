package provisioning_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskeri/taskeri/internal/provisioning"
	"github.com/taskeri/taskeri/internal/shared"
	"github.com/taskeri/taskeri/internal/tenancy"
	"github.com/taskeri/taskeri/internal/testing/pgfake"
)

type recorder struct {
	mu    sync.Mutex
	calls [][2]string
}

func (r *recorder) ObserveProvisioning(stage, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, [2]string{stage, outcome})
}

func newService(conn *pgfake.Conn, rec *recorder) *provisioning.Service {
	resolver := tenancy.NewResolver(tenancy.AcquirerFunc(func(context.Context) (tenancy.Conn, error) {
		return conn, nil
	}), tenancy.MustNamespace("taskeri_global"), nil)
	return provisioning.NewService(resolver, nil,
		provisioning.WithHashCost(bcrypt.MinCost),
		provisioning.WithMetrics(rec),
	)
}

func adminRow(sql string, _ []any) pgfake.Row {
	if strings.HasPrefix(sql, "INSERT INTO users") {
		return pgfake.Row{Values: []any{int64(1)}}
	}
	return pgfake.Row{Err: errors.New("unexpected query")}
}

func request() provisioning.Request {
	return provisioning.Request{
		Namespace: tenancy.MustNamespace("tenant_acme"),
		Admin: provisioning.Admin{
			Email:     " Owner@Acme.test ",
			FirstName: "Ada",
			LastName:  "Owner",
			Password:  "s3cret-pass",
		},
	}
}

func execsContaining(conn *pgfake.Conn, fragment string) []pgfake.Statement {
	var out []pgfake.Statement
	for _, st := range conn.Execs() {
		if strings.Contains(st.SQL, fragment) {
			out = append(out, st)
		}
	}
	return out
}

func TestProvisionSeedsTenant(t *testing.T) {
	conn := &pgfake.Conn{RowFunc: adminRow}
	rec := &recorder{}

	res, err := newService(conn, rec).Provision(context.Background(), request())
	require.NoError(t, err)
	require.Equal(t, int64(1), res.AdminUserID)
	require.Equal(t, "tenant_acme", res.Namespace.String())

	execs := conn.Execs()
	require.Equal(t, `CREATE SCHEMA IF NOT EXISTS "tenant_acme"`, execs[0].SQL)
	require.Equal(t, `SET search_path TO "tenant_acme"`, execs[1].SQL)

	perms := execsContaining(conn, "INSERT INTO permissions")
	require.Len(t, perms, 1)
	require.Equal(t, shared.PermissionCatalog(), perms[0].Args[0])

	roles := execsContaining(conn, "INSERT INTO roles")
	require.Len(t, roles, 1)
	require.Equal(t, []string{"Admin", "Manager", "Employee"}, roles[0].Args[0])

	bindings := execsContaining(conn, "INSERT INTO role_permissions")
	require.Len(t, bindings, 3)
	require.Equal(t, "Admin", bindings[0].Args[0])
	require.Equal(t, shared.PermissionCatalog(), bindings[0].Args[1])
	require.Equal(t, "Manager", bindings[1].Args[0])
	require.Equal(t, shared.ManagerScopes(), bindings[1].Args[1])
	require.Equal(t, "Employee", bindings[2].Args[0])
	require.Equal(t, shared.EmployeeScopes(), bindings[2].Args[1])

	assign := execsContaining(conn, "INSERT INTO user_roles")
	require.Len(t, assign, 1)
	require.Equal(t, []any{int64(1), "Admin"}, assign[0].Args)

	users := conn.Queries()
	require.Len(t, users, 1)
	require.Equal(t, "owner@acme.test", users[0].Args[0])
	hash, ok := users[0].Args[1].(string)
	require.True(t, ok)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))

	txs := conn.Txs()
	require.Len(t, txs, 1)
	require.True(t, txs[0].Committed())
	require.Equal(t, 2, conn.Released())
	require.Equal(t, [][2]string{{"", "ok"}}, rec.calls)
}

func TestProvisionFailureRollsBack(t *testing.T) {
	conn := &pgfake.Conn{
		RowFunc: adminRow,
		ExecErr: func(sql string) error {
			if strings.Contains(sql, "INSERT INTO roles") {
				return errors.New("relation does not exist")
			}
			return nil
		},
	}
	rec := &recorder{}

	_, err := newService(conn, rec).Provision(context.Background(), request())
	require.ErrorIs(t, err, provisioning.ErrProvisioning)

	var perr *provisioning.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, provisioning.StageSeedRoles, perr.Stage)
	require.Equal(t, "tenant_acme", perr.Namespace)

	txs := conn.Txs()
	require.Len(t, txs, 1)
	require.False(t, txs[0].Committed())
	require.True(t, txs[0].RolledBack())
	require.Empty(t, execsContaining(conn, "INSERT INTO user_roles"))
	require.Equal(t, [][2]string{{"seed_roles", "failed"}}, rec.calls)
}

func TestProvisionAdminInsertFailure(t *testing.T) {
	conn := &pgfake.Conn{}
	rec := &recorder{}

	_, err := newService(conn, rec).Provision(context.Background(), request())
	var perr *provisioning.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, provisioning.StageCreateAdmin, perr.Stage)
	require.True(t, conn.Txs()[0].RolledBack())
}

func TestProvisionCreateNamespaceFailure(t *testing.T) {
	conn := &pgfake.Conn{ExecErr: func(sql string) error {
		if strings.HasPrefix(sql, "CREATE SCHEMA") {
			return errors.New("permission denied")
		}
		return nil
	}}
	rec := &recorder{}

	_, err := newService(conn, rec).Provision(context.Background(), request())
	var perr *provisioning.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, provisioning.StageCreateNamespace, perr.Stage)
	require.Empty(t, conn.Txs())
}

func TestProvisionRejectsZeroNamespace(t *testing.T) {
	conn := &pgfake.Conn{}
	_, err := newService(conn, &recorder{}).Provision(context.Background(), provisioning.Request{})
	require.ErrorIs(t, err, tenancy.ErrInvalidNamespace)
	require.Empty(t, conn.Execs())
}
