package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Options tunes the shared connection pool.
type Options struct {
	MaxConns int32
	Logger   *slog.Logger
}

// New creates a new PostgreSQL connection pool.
//
// Connections carry a per-checkout search_path. The AfterRelease hook resets it before a
// connection is returned to the pool and destroys the connection when the reset fails.
func New(ctx context.Context, dsn string, opts Options) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	config.AfterRelease = func(conn *pgx.Conn) bool {
		resetCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(resetCtx, "RESET search_path"); err != nil {
			if opts.Logger != nil {
				opts.Logger.Warn("reset search_path, dropping connection", slog.Any("error", err))
			}
			return false
		}
		return true
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return pool, nil
}
