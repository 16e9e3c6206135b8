package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskeri/taskeri/internal/platform/httpx"
	"github.com/taskeri/taskeri/internal/shared"
)

// Middleware wires per-handler permission checks onto the request evaluator.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require(normalizePermissions(perms), func(ctx context.Context, e *Evaluator, userID int64, p []string) (bool, error) {
		return e.HasAny(ctx, userID, p...)
	})
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require(normalizePermissions(perms), func(ctx context.Context, e *Evaluator, userID int64, p []string) (bool, error) {
		return e.HasAll(ctx, userID, p...)
	})
}

type checkFunc func(ctx context.Context, e *Evaluator, userID int64, perms []string) (bool, error)

func (m Middleware) require(perms []string, check checkFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			id, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.Unauthorized(w, httpx.MsgMissingToken)
				return
			}
			eval := EvaluatorFromContext(r.Context())
			if eval == nil {
				m.logError("rbac evaluator missing from request", nil)
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", httpx.MsgInternal)
				return
			}
			granted, err := check(r.Context(), eval, id.UserID, perms)
			if err != nil {
				m.logError("rbac check", err)
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", httpx.MsgInternal)
				return
			}
			if !granted {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", httpx.MsgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) logError(msg string, err error) {
	if m.Logger == nil {
		return
	}
	if err != nil {
		m.Logger.Error(msg, slog.Any("error", err))
		return
	}
	m.Logger.Error(msg)
}

func normalizePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
