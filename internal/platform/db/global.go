package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

//go:embed global.sql
var globalSchemaDDL string

// EnsureGlobal creates the global directory schema and its tables when missing.
func EnsureGlobal(ctx context.Context, conn DBTX, schema string) error {
	ident := pgx.Identifier{schema}.Sanitize()
	if _, err := conn.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident); err != nil {
		return fmt.Errorf("platform/db: create global schema: %w", err)
	}
	ddl := strings.ReplaceAll(globalSchemaDDL, "{{schema}}", ident)
	if _, err := conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("platform/db: apply global ddl: %w", err)
	}
	return nil
}
