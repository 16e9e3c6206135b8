// Package pgfake provides in-memory stand-ins for pgx connections in tests.
package pgfake

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Statement is one recorded call.
type Statement struct {
	SQL  string
	Args []any
}

// Conn records statements and answers queries from callbacks.
type Conn struct {
	// ExecErr, when set, decides the error returned for an Exec.
	ExecErr func(sql string) error
	// ExecTag, when set, supplies the command tag for an Exec, e.g. "DELETE 1".
	ExecTag func(sql string) string
	// RowFunc answers QueryRow. A nil RowFunc yields pgx.ErrNoRows.
	RowFunc func(sql string, args []any) Row
	// RowsFunc answers Query.
	RowsFunc func(sql string, args []any) ([][]any, error)
	// BeginErr fails Begin when set.
	BeginErr error

	mu       sync.Mutex
	execs    []Statement
	queries  []Statement
	released int
	txs      []*Tx
}

// Exec records the statement.
func (c *Conn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.mu.Lock()
	c.execs = append(c.execs, Statement{SQL: sql, Args: args})
	c.mu.Unlock()
	if c.ExecErr != nil {
		if err := c.ExecErr(sql); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	if c.ExecTag != nil {
		return pgconn.NewCommandTag(c.ExecTag(sql)), nil
	}
	return pgconn.NewCommandTag("OK"), nil
}

// Query answers from RowsFunc.
func (c *Conn) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.mu.Lock()
	c.queries = append(c.queries, Statement{SQL: sql, Args: args})
	c.mu.Unlock()
	if c.RowsFunc == nil {
		return &Rows{}, nil
	}
	data, err := c.RowsFunc(sql, args)
	if err != nil {
		return nil, err
	}
	return &Rows{data: data, idx: -1}, nil
}

// QueryRow answers from RowFunc.
func (c *Conn) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	c.mu.Lock()
	c.queries = append(c.queries, Statement{SQL: sql, Args: args})
	c.mu.Unlock()
	if c.RowFunc == nil {
		return Row{Err: pgx.ErrNoRows}
	}
	return c.RowFunc(sql, args)
}

// Begin opens a recorded transaction.
func (c *Conn) Begin(_ context.Context) (pgx.Tx, error) {
	if c.BeginErr != nil {
		return nil, c.BeginErr
	}
	tx := &Tx{conn: c}
	c.mu.Lock()
	c.txs = append(c.txs, tx)
	c.mu.Unlock()
	return tx, nil
}

// Release counts releases.
func (c *Conn) Release() {
	c.mu.Lock()
	c.released++
	c.mu.Unlock()
}

// Released reports how many times Release was called.
func (c *Conn) Released() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Execs returns the recorded Exec statements.
func (c *Conn) Execs() []Statement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Statement(nil), c.execs...)
}

// Queries returns the recorded Query and QueryRow statements.
func (c *Conn) Queries() []Statement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Statement(nil), c.queries...)
}

// CountQueries counts recorded queries containing fragment.
func (c *Conn) CountQueries(fragment string) int {
	n := 0
	for _, q := range c.Queries() {
		if strings.Contains(q.SQL, fragment) {
			n++
		}
	}
	return n
}

// Txs returns the transactions opened on this connection.
func (c *Conn) Txs() []*Tx {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Tx(nil), c.txs...)
}

// Tx is a transaction over a fake Conn. Unimplemented pgx.Tx methods panic.
type Tx struct {
	pgx.Tx
	conn       *Conn
	committed  bool
	rolledBack bool
}

// Exec delegates to the connection.
func (t *Tx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.conn.Exec(ctx, sql, args...)
}

// Query delegates to the connection.
func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.conn.Query(ctx, sql, args...)
}

// QueryRow delegates to the connection.
func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.conn.QueryRow(ctx, sql, args...)
}

// Commit marks the transaction committed.
func (t *Tx) Commit(context.Context) error {
	if t.committed || t.rolledBack {
		return pgx.ErrTxClosed
	}
	t.committed = true
	return nil
}

// Rollback marks the transaction rolled back unless already committed.
func (t *Tx) Rollback(context.Context) error {
	if t.committed || t.rolledBack {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

// Committed reports whether Commit succeeded.
func (t *Tx) Committed() bool { return t.committed }

// RolledBack reports whether Rollback ran before a commit.
func (t *Tx) RolledBack() bool { return t.rolledBack }

// Row is a canned QueryRow result.
type Row struct {
	Values []any
	Err    error
}

// Scan copies Values into dest.
func (r Row) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return assign(r.Values, dest)
}

// Rows iterates canned results.
type Rows struct {
	data [][]any
	idx  int
	err  error
}

func (r *Rows) Close()                                       {}
func (r *Rows) Err() error                                   { return r.err }
func (r *Rows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *Rows) RawValues() [][]byte                          { return nil }
func (r *Rows) Conn() *pgx.Conn                              { return nil }

func (r *Rows) Next() bool {
	if r.idx+1 >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.data) {
		return errors.New("pgfake: scan outside row")
	}
	return assign(r.data[r.idx], dest)
}

func (r *Rows) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.data) {
		return nil, errors.New("pgfake: values outside row")
	}
	return r.data[r.idx], nil
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("pgfake: %d values for %d destinations", len(values), len(dest))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("pgfake: destination %d is not a pointer", i)
		}
		if values[i] == nil {
			target.Elem().Set(reflect.Zero(target.Elem().Type()))
			continue
		}
		v := reflect.ValueOf(values[i])
		if !v.Type().AssignableTo(target.Elem().Type()) {
			if !v.Type().ConvertibleTo(target.Elem().Type()) {
				return fmt.Errorf("pgfake: cannot assign %T to %s", values[i], target.Elem().Type())
			}
			v = v.Convert(target.Elem().Type())
		}
		target.Elem().Set(v)
	}
	return nil
}
