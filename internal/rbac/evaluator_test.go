package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	perms     map[int64]map[string]bool
	roles     map[int64]string
	permCalls int
	roleCalls int
	err       error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{perms: map[int64]map[string]bool{}, roles: map[int64]string{}}
}

func (s *memoryStore) grant(userID int64, perms ...string) {
	if s.perms[userID] == nil {
		s.perms[userID] = map[string]bool{}
	}
	for _, p := range perms {
		s.perms[userID][p] = true
	}
}

func (s *memoryStore) UserHasPermission(_ context.Context, userID int64, permission string) (bool, error) {
	s.permCalls++
	if s.err != nil {
		return false, s.err
	}
	return s.perms[userID][permission], nil
}

func (s *memoryStore) UserHasRole(_ context.Context, userID int64, roles ...string) (bool, error) {
	s.roleCalls++
	if s.err != nil {
		return false, s.err
	}
	for _, r := range roles {
		if s.roles[userID] == r {
			return true, nil
		}
	}
	return false, nil
}

func TestEvaluatorCachesWithinRequest(t *testing.T) {
	store := newMemoryStore()
	store.grant(1, "read_task")
	eval := NewEvaluator(store)
	ctx := context.Background()

	first, err := eval.HasPermission(ctx, 1, "read_task")
	require.NoError(t, err)
	second, err := eval.HasPermission(ctx, 1, "read_task")
	require.NoError(t, err)

	assert.True(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.permCalls)
	hits, misses := eval.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestEvaluatorCachesNegativeResults(t *testing.T) {
	store := newMemoryStore()
	eval := NewEvaluator(store)

	for i := 0; i < 3; i++ {
		ok, err := eval.HasPermission(context.Background(), 1, "delete_any_task")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, store.permCalls)
}

func TestNewEvaluatorSeesChangedBindings(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	ok, err := NewEvaluator(store).HasPermission(ctx, 5, "read_company")
	require.NoError(t, err)
	assert.False(t, ok)

	store.grant(5, "read_company")

	ok, err = NewEvaluator(store).HasPermission(ctx, 5, "read_company")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, store.permCalls)
}

func TestHasAnyAndHasAll(t *testing.T) {
	store := newMemoryStore()
	store.grant(2, "read_task")
	eval := NewEvaluator(store)
	ctx := context.Background()

	ok, err := eval.HasAny(ctx, 2, "read_any_task", "read_task")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eval.HasAll(ctx, 2, "read_any_task", "read_task")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = eval.HasAny(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = eval.HasAll(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 2, store.permCalls)
}

func TestHasRoleCachesByRoleSet(t *testing.T) {
	store := newMemoryStore()
	store.roles[3] = "Manager"
	eval := NewEvaluator(store)
	ctx := context.Background()

	ok, err := eval.HasRole(ctx, 3, "Admin", "Manager")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = eval.HasRole(ctx, 3, "Manager", "Admin")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, store.roleCalls)

	ok, err = eval.HasRole(ctx, 3, "Admin")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, store.roleCalls)
}

func TestEvaluatorDoesNotCacheErrors(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("connection reset")
	eval := NewEvaluator(store)

	_, err := eval.HasPermission(context.Background(), 1, "read_task")
	require.Error(t, err)

	store.err = nil
	store.grant(1, "read_task")
	ok, err := eval.HasPermission(context.Background(), 1, "read_task")
	require.NoError(t, err)
	assert.True(t, ok)
}
