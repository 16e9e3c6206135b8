package tenancy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskeri/taskeri/internal/tenancy"
	"github.com/taskeri/taskeri/internal/testing/pgfake"
)

func acquirerFor(conn *pgfake.Conn) tenancy.Acquirer {
	return tenancy.AcquirerFunc(func(context.Context) (tenancy.Conn, error) {
		return conn, nil
	})
}

func TestBindSwitchesSearchPath(t *testing.T) {
	conn := &pgfake.Conn{}
	r := tenancy.NewResolver(acquirerFor(conn), tenancy.MustNamespace("taskeri_global"), nil)

	sess, err := r.Bind(context.Background(), tenancy.MustNamespace("tenant_acme"))
	require.NoError(t, err)
	require.Equal(t, "tenant_acme", sess.Namespace().String())

	execs := conn.Execs()
	require.Len(t, execs, 1)
	require.Equal(t, `SET search_path TO "tenant_acme"`, execs[0].SQL)

	sess.Release()
	sess.Release()
	require.Equal(t, 1, conn.Released())
}

func TestBindGlobalUsesConfiguredNamespace(t *testing.T) {
	conn := &pgfake.Conn{}
	r := tenancy.NewResolver(acquirerFor(conn), tenancy.MustNamespace("taskeri_global"), nil)

	sess, err := r.BindGlobal(context.Background())
	require.NoError(t, err)
	defer sess.Release()
	require.Equal(t, `SET search_path TO "taskeri_global"`, conn.Execs()[0].SQL)
}

func TestBindFailureReleasesConnection(t *testing.T) {
	conn := &pgfake.Conn{ExecErr: func(string) error { return errors.New("schema does not exist") }}
	r := tenancy.NewResolver(acquirerFor(conn), tenancy.MustNamespace("taskeri_global"), nil)

	sess, err := r.Bind(context.Background(), tenancy.MustNamespace("tenant_missing"))
	require.Nil(t, sess)
	require.ErrorIs(t, err, tenancy.ErrSchemaSwitch)
	require.Equal(t, 1, conn.Released())
}

func TestBindAcquireFailure(t *testing.T) {
	r := tenancy.NewResolver(tenancy.AcquirerFunc(func(context.Context) (tenancy.Conn, error) {
		return nil, errors.New("pool closed")
	}), tenancy.MustNamespace("taskeri_global"), nil)

	_, err := r.Bind(context.Background(), tenancy.MustNamespace("tenant_acme"))
	require.ErrorIs(t, err, tenancy.ErrSchemaSwitch)
}

func TestBindRejectsZeroNamespace(t *testing.T) {
	conn := &pgfake.Conn{}
	r := tenancy.NewResolver(acquirerFor(conn), tenancy.MustNamespace("taskeri_global"), nil)

	_, err := r.Bind(context.Background(), tenancy.Namespace{})
	require.ErrorIs(t, err, tenancy.ErrInvalidNamespace)
	require.Empty(t, conn.Execs())
}

func TestCreateNamespace(t *testing.T) {
	conn := &pgfake.Conn{}
	r := tenancy.NewResolver(acquirerFor(conn), tenancy.MustNamespace("taskeri_global"), nil)

	require.NoError(t, r.CreateNamespace(context.Background(), tenancy.MustNamespace("tenant_acme")))
	require.Equal(t, `CREATE SCHEMA IF NOT EXISTS "tenant_acme"`, conn.Execs()[0].SQL)
	require.Equal(t, 1, conn.Released())
}

func TestSessionContextRoundTrip(t *testing.T) {
	conn := &pgfake.Conn{}
	r := tenancy.NewResolver(acquirerFor(conn), tenancy.MustNamespace("taskeri_global"), nil)
	sess, err := r.BindGlobal(context.Background())
	require.NoError(t, err)
	defer sess.Release()

	ctx := tenancy.ContextWithSession(context.Background(), sess)
	require.Same(t, sess, tenancy.SessionFromContext(ctx))
	require.Nil(t, tenancy.SessionFromContext(context.Background()))
}

func TestConnFromContext(t *testing.T) {
	_, err := tenancy.ConnFromContext(context.Background())
	require.ErrorIs(t, err, tenancy.ErrNoSession)

	conn := &pgfake.Conn{}
	r := tenancy.NewResolver(acquirerFor(conn), tenancy.MustNamespace("taskeri_global"), nil)
	sess, err := r.BindGlobal(context.Background())
	require.NoError(t, err)
	defer sess.Release()

	got, err := tenancy.ConnFromContext(tenancy.ContextWithSession(context.Background(), sess))
	require.NoError(t, err)
	require.Same(t, conn, got)
}
