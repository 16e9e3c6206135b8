package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskeri/taskeri/internal/rbac"
	"github.com/taskeri/taskeri/internal/routes"
	"github.com/taskeri/taskeri/internal/shared"
	"github.com/taskeri/taskeri/internal/testing/pgfake"
)

func TestOwnershipRulesRegisterOverridesFallback(t *testing.T) {
	g := newGraph()
	g.assign(1, shared.RoleEmployee, nil)
	rules := DefaultOwnership()
	rules.Register("comment", func(context.Context, OwnershipRequest) (bool, error) { return true, nil })

	req := OwnershipRequest{UserID: 1, Resource: routes.Resource{Type: "comment", ID: 2}, Evaluator: rbac.NewEvaluator(g)}
	ok, err := rules.Check(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, ok)

	req.Resource.Type = "department"
	ok, err = rules.Check(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOwnershipRulesWithoutFallbackDeny(t *testing.T) {
	ok, err := NewOwnershipRules(nil).Check(context.Background(), OwnershipRequest{Resource: routes.Resource{Type: "x", ID: 1}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProjectOwnership(t *testing.T) {
	g := newGraph()
	g.assign(1, shared.RoleManager, nil)
	g.assign(2, shared.RoleEmployee, nil)
	res := fakeResources{projects: map[int64]bool{8: true}}

	check := func(userID, projectID int64) bool {
		ok, err := ProjectOwnership(context.Background(), OwnershipRequest{
			UserID:    userID,
			Resource:  routes.Resource{Type: "project", ID: projectID},
			Evaluator: rbac.NewEvaluator(g),
			Resources: res,
		})
		require.NoError(t, err)
		return ok
	}
	assert.True(t, check(1, 8))
	assert.False(t, check(1, 9))
	assert.False(t, check(2, 8))
}

func TestPGResourcesQueries(t *testing.T) {
	conn := &pgfake.Conn{RowFunc: func(_ string, args []any) pgfake.Row {
		return pgfake.Row{Values: []any{args[0] == int64(5)}}
	}}
	res := NewPGResources(conn)
	ctx := context.Background()

	ok, err := res.TaskExists(ctx, 5)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = res.TaskAssigned(ctx, 6, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = res.ProjectExists(ctx, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 1, conn.CountQueries("FROM task_assignments"))
	assert.Equal(t, 1, conn.CountQueries("FROM projects"))
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "schema_bound", StateSchemaBound.String())
	assert.Equal(t, "unknown", State(42).String())
}
