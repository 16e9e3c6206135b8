package tenants

import (
	"context"

	"github.com/taskeri/taskeri/internal/platform/db"
	"github.com/taskeri/taskeri/internal/tenancy"
)

// GlobalBinder binds a session to the global namespace.
type GlobalBinder interface {
	BindGlobal(ctx context.Context) (*tenancy.Session, error)
}

// Directory lists tenant namespaces outside of a request.
type Directory struct {
	binder GlobalBinder
}

// NewDirectory constructs a Directory.
func NewDirectory(binder GlobalBinder) *Directory {
	return &Directory{binder: binder}
}

// Schemas returns the schema name of every registered tenant.
func (d *Directory) Schemas(ctx context.Context) ([]string, error) {
	sess, err := d.binder.BindGlobal(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Release()

	repo := NewRepository(func(context.Context) (db.DBTX, error) { return sess.Conn(), nil })
	names, err := repo.ListSchemas(ctx)
	if err != nil {
		return nil, err
	}
	schemas := make([]string, 0, len(names))
	for _, name := range names {
		schemas = append(schemas, tenancy.TenantPrefix+name)
	}
	return schemas, nil
}
