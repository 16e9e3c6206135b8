package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskeri/taskeri/internal/platform/db"
)

// ErrSchemaSwitch indicates a connection could not be bound to a namespace.
var ErrSchemaSwitch = errors.New("tenancy: schema switch failed")

// Conn is one checked-out connection. *pgxpool.Conn satisfies it.
type Conn interface {
	db.DBTX
	db.Beginner
	Release()
}

// Acquirer hands out exclusive connections.
type Acquirer interface {
	Acquire(ctx context.Context) (Conn, error)
}

// AcquirerFunc adapts a function to Acquirer.
type AcquirerFunc func(ctx context.Context) (Conn, error)

// Acquire calls f(ctx).
func (f AcquirerFunc) Acquire(ctx context.Context) (Conn, error) {
	return f(ctx)
}

// PoolAcquirer adapts a pgx pool to Acquirer.
func PoolAcquirer(pool *pgxpool.Pool) Acquirer {
	return AcquirerFunc(func(ctx context.Context) (Conn, error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return conn, nil
	})
}

// Binder binds request storage to a namespace.
type Binder interface {
	Bind(ctx context.Context, ns Namespace) (*Session, error)
	BindGlobal(ctx context.Context) (*Session, error)
}

// Resolver checks out connections and binds them to tenant namespaces.
type Resolver struct {
	acquirer Acquirer
	global   Namespace
	logger   *slog.Logger
}

// NewResolver constructs a Resolver. global is the namespace used for public routes.
func NewResolver(acquirer Acquirer, global Namespace, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{acquirer: acquirer, global: global, logger: logger}
}

// Global returns the namespace used for unauthenticated requests.
func (r *Resolver) Global() Namespace {
	return r.global
}

// Bind checks out a connection and switches it to ns. The caller must Release the session.
func (r *Resolver) Bind(ctx context.Context, ns Namespace) (*Session, error) {
	if ns.IsZero() {
		return nil, fmt.Errorf("%w: %w", ErrSchemaSwitch, ErrInvalidNamespace)
	}
	conn, err := r.acquirer.Acquire(ctx)
	if err != nil {
		r.logger.Error("acquire connection", slog.String("namespace", ns.String()), slog.Any("error", err))
		return nil, fmt.Errorf("%w: acquire: %w", ErrSchemaSwitch, err)
	}
	if _, err := conn.Exec(ctx, "SET search_path TO "+ns.Ident()); err != nil {
		conn.Release()
		r.logger.Error("switch namespace", slog.String("namespace", ns.String()), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaSwitch, ns, err)
	}
	return &Session{conn: conn, ns: ns}, nil
}

// BindGlobal binds to the global namespace.
func (r *Resolver) BindGlobal(ctx context.Context) (*Session, error) {
	return r.Bind(ctx, r.global)
}

// CreateNamespace creates the schema if it does not exist.
func (r *Resolver) CreateNamespace(ctx context.Context, ns Namespace) error {
	if ns.IsZero() {
		return ErrInvalidNamespace
	}
	conn, err := r.acquirer.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: acquire: %w", err)
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ns.Ident()); err != nil {
		return fmt.Errorf("tenancy: create schema %s: %w", ns, err)
	}
	return nil
}

// Session is a connection bound to one namespace for the lifetime of a request.
type Session struct {
	conn Conn
	ns   Namespace
	once sync.Once
}

// Namespace returns the bound namespace.
func (s *Session) Namespace() Namespace {
	return s.ns
}

// Conn exposes the bound connection for queries.
func (s *Session) Conn() db.DBTX {
	return s.conn
}

// Begin starts a transaction on the bound connection.
func (s *Session) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.conn.Begin(ctx)
}

// Release returns the connection to the pool. Safe to call more than once.
func (s *Session) Release() {
	if s == nil {
		return
	}
	s.once.Do(s.conn.Release)
}
