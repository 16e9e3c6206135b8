package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taskeri/taskeri/internal/platform/db"
	"github.com/taskeri/taskeri/internal/shared"
)

// Repository looks up credentials inside one tenant namespace.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// PGRepository implements Repository over a tenant-bound connection.
type PGRepository struct {
	conn db.DBTX
}

// NewRepository constructs a PostgreSQL repository on a connection already bound to the tenant.
func NewRepository(conn db.DBTX) Repository {
	return &PGRepository{conn: conn}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.conn.QueryRow(ctx, `SELECT id, email, password_hash FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
