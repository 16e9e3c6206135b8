package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskeri/taskeri/internal/auth"
	"github.com/taskeri/taskeri/internal/provisioning"
	"github.com/taskeri/taskeri/internal/shared"
	"github.com/taskeri/taskeri/internal/tenancy"
	"github.com/taskeri/taskeri/internal/tenants"
	"github.com/taskeri/taskeri/internal/testing/pgfake"
	"github.com/taskeri/taskeri/internal/token"
)

// memoryDirectory backs both registration and login.
type memoryDirectory struct {
	rows map[string]tenants.TenantUser
}

func (m *memoryDirectory) FindByEmail(_ context.Context, email string) (tenants.TenantUser, error) {
	tu, ok := m.rows[email]
	if !ok {
		return tenants.TenantUser{}, shared.ErrNotFound
	}
	return tu, nil
}

func (m *memoryDirectory) SchemaTaken(_ context.Context, schema string) (bool, error) {
	for _, tu := range m.rows {
		if tu.TenantSchema == schema {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryDirectory) Create(_ context.Context, email, schema string) (tenants.TenantUser, error) {
	tu := tenants.TenantUser{ID: int64(100 + len(m.rows)), Email: email, TenantSchema: schema, CreatedAt: time.Now()}
	m.rows[email] = tu
	return tu, nil
}

// tenantUsers answers the provisioning insert and the login lookup from one table.
type tenantUsers struct {
	hashes map[string]string
}

func (u *tenantUsers) row(sql string, args []any) pgfake.Row {
	switch {
	case strings.HasPrefix(sql, "INSERT INTO users"):
		u.hashes[args[0].(string)] = args[1].(string)
		return pgfake.Row{Values: []any{int64(7)}}
	case strings.Contains(sql, "FROM users WHERE email"):
		email := args[0].(string)
		hash, ok := u.hashes[email]
		if !ok {
			return pgfake.Row{Err: pgx.ErrNoRows}
		}
		return pgfake.Row{Values: []any{int64(7), email, hash}}
	}
	return pgfake.Row{Err: pgx.ErrNoRows}
}

func TestRegisteredTenantCanLogIn(t *testing.T) {
	users := &tenantUsers{hashes: map[string]string{}}
	conn := &pgfake.Conn{RowFunc: users.row}
	resolver := tenancy.NewResolver(tenancy.AcquirerFunc(func(context.Context) (tenancy.Conn, error) {
		return conn, nil
	}), tenancy.MustNamespace("taskeri_global"), nil)

	directory := &memoryDirectory{rows: map[string]tenants.TenantUser{}}
	provisioner := provisioning.NewService(resolver, nil, provisioning.WithHashCost(bcrypt.MinCost))
	registrar := tenants.NewRegistrar(directory, provisioner, nil, nil)

	tu, err := registrar.Register(context.Background(), tenants.RegisterInput{
		Email:        "Alice@Acme.io",
		FirstName:    "Alice",
		LastName:     "Admin",
		Password:     "correct-horse",
		TenantSchema: "acme",
	})
	require.NoError(t, err)

	tokens, err := token.NewManager("test-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)
	service := auth.NewService(directory, resolver, tokens, nil)

	for _, email := range []string{"Alice@Acme.io", "alice@acme.io", " ALICE@ACME.IO "} {
		t.Run(email, func(t *testing.T) {
			tok, err := service.Login(context.Background(), email, "correct-horse")
			require.NoError(t, err)

			id, err := tokens.Verify(tok.AccessToken)
			require.NoError(t, err)
			require.Equal(t, int64(7), id.UserID)
			require.Equal(t, tu.ID, id.TenantID)
			require.Equal(t, "acme", id.TenantName)
		})
	}

	_, err = service.Login(context.Background(), "Alice@Acme.io", "wrong-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = registrar.Register(context.Background(), tenants.RegisterInput{
		Email:        "ALICE@acme.io",
		FirstName:    "Alice",
		LastName:     "Again",
		Password:     "correct-horse",
		TenantSchema: "acme_two",
	})
	require.ErrorIs(t, err, shared.ErrDuplicateIdentity)
}
