package tenancy

import (
	"context"
	"errors"

	"github.com/taskeri/taskeri/internal/platform/db"
)

type sessionContextKey struct{}

// ContextWithSession stores the request's bound session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the bound session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ErrNoSession is returned when a handler runs without a bound session.
var ErrNoSession = errors.New("tenancy: no bound session")

// ConnFunc resolves the connection a repository should query through.
type ConnFunc func(ctx context.Context) (db.DBTX, error)

// ConnFromContext returns the connection of the session bound to ctx.
func ConnFromContext(ctx context.Context) (db.DBTX, error) {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess.Conn(), nil
}
