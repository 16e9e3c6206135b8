package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskeri/taskeri/internal/shared"
	"github.com/taskeri/taskeri/internal/tenancy"
)

// pgUniqueViolation is SQLSTATE unique_violation.
const pgUniqueViolation = "23505"

// Repository reads and writes the tenant directory. Its connection must be bound to the
// global namespace.
type Repository struct {
	conn tenancy.ConnFunc
}

// NewRepository constructs a repository.
func NewRepository(conn tenancy.ConnFunc) *Repository {
	return &Repository{conn: conn}
}

// FindByEmail returns the directory row for email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (TenantUser, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return TenantUser{}, err
	}
	var tu TenantUser
	err = conn.QueryRow(ctx, `SELECT id, email, tenant_schema, created_at FROM tenant_users WHERE email = $1`, email).
		Scan(&tu.ID, &tu.Email, &tu.TenantSchema, &tu.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return TenantUser{}, shared.ErrNotFound
	}
	if err != nil {
		return TenantUser{}, fmt.Errorf("tenants: find by email: %w", err)
	}
	return tu, nil
}

// SchemaTaken reports whether a tenant name is already registered.
func (r *Repository) SchemaTaken(ctx context.Context, schema string) (bool, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return false, err
	}
	var taken bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tenant_users WHERE tenant_schema = $1)`, schema).Scan(&taken); err != nil {
		return false, fmt.Errorf("tenants: schema taken: %w", err)
	}
	return taken, nil
}

// Create inserts a directory row.
func (r *Repository) Create(ctx context.Context, email, schema string) (TenantUser, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return TenantUser{}, err
	}
	tu := TenantUser{Email: email, TenantSchema: schema}
	err = conn.QueryRow(ctx, `INSERT INTO tenant_users (email, tenant_schema) VALUES ($1, $2) RETURNING id, created_at`, email, schema).
		Scan(&tu.ID, &tu.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if pgErr.ConstraintName == "tenant_users_tenant_schema_key" {
				return TenantUser{}, shared.ErrTenantTaken
			}
			return TenantUser{}, shared.ErrDuplicateIdentity
		}
		return TenantUser{}, fmt.Errorf("tenants: create: %w", err)
	}
	return tu, nil
}

// ListSchemas returns every registered tenant name.
func (r *Repository) ListSchemas(ctx context.Context) ([]string, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, `SELECT tenant_schema FROM tenant_users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("tenants: list schemas: %w", err)
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("tenants: scan: %w", err)
		}
		schemas = append(schemas, s)
	}
	return schemas, rows.Err()
}
