package rbac

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type cacheKey struct {
	userID int64
	name   string
}

// Evaluator answers permission questions for one request. Results are cached for the
// evaluator's lifetime only; build a new one per request.
type Evaluator struct {
	store Store

	mu     sync.Mutex
	perms  map[cacheKey]bool
	roles  map[cacheKey]bool
	hits   int
	misses int
}

// NewEvaluator constructs an Evaluator with an empty cache.
func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{
		store: store,
		perms: make(map[cacheKey]bool),
		roles: make(map[cacheKey]bool),
	}
}

// HasPermission reports whether the user holds permission.
func (e *Evaluator) HasPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	key := cacheKey{userID: userID, name: permission}
	e.mu.Lock()
	if v, ok := e.perms[key]; ok {
		e.hits++
		e.mu.Unlock()
		return v, nil
	}
	e.misses++
	e.mu.Unlock()

	v, err := e.store.UserHasPermission(ctx, userID, permission)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	e.perms[key] = v
	e.mu.Unlock()
	return v, nil
}

// HasAny reports whether the user holds at least one of permissions.
func (e *Evaluator) HasAny(ctx context.Context, userID int64, permissions ...string) (bool, error) {
	for _, p := range permissions {
		ok, err := e.HasPermission(ctx, userID, p)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// HasAll reports whether the user holds every one of permissions.
func (e *Evaluator) HasAll(ctx context.Context, userID int64, permissions ...string) (bool, error) {
	for _, p := range permissions {
		ok, err := e.HasPermission(ctx, userID, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// HasRole reports whether the user holds one of roles.
func (e *Evaluator) HasRole(ctx context.Context, userID int64, roles ...string) (bool, error) {
	sorted := append([]string(nil), roles...)
	sort.Strings(sorted)
	key := cacheKey{userID: userID, name: strings.Join(sorted, "\x00")}

	e.mu.Lock()
	if v, ok := e.roles[key]; ok {
		e.hits++
		e.mu.Unlock()
		return v, nil
	}
	e.misses++
	e.mu.Unlock()

	v, err := e.store.UserHasRole(ctx, userID, roles...)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	e.roles[key] = v
	e.mu.Unlock()
	return v, nil
}

// Stats returns cache hits and misses.
func (e *Evaluator) Stats() (hits, misses int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hits, e.misses
}

type evaluatorContextKey struct{}

// ContextWithEvaluator stores the request evaluator in context.
func ContextWithEvaluator(ctx context.Context, e *Evaluator) context.Context {
	return context.WithValue(ctx, evaluatorContextKey{}, e)
}

// EvaluatorFromContext extracts the request evaluator from context.
func EvaluatorFromContext(ctx context.Context) *Evaluator {
	e, _ := ctx.Value(evaluatorContextKey{}).(*Evaluator)
	return e
}
