package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionCatalogIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for _, p := range PermissionCatalog() {
		_, dup := seen[p]
		assert.Falsef(t, dup, "duplicate permission %q", p)
		seen[p] = struct{}{}
	}
	assert.Len(t, seen, 87)
}

func TestRoleScopesAreSubsetsOfCatalog(t *testing.T) {
	catalog := make(map[string]struct{})
	for _, p := range PermissionCatalog() {
		catalog[p] = struct{}{}
	}
	for _, p := range ManagerScopes() {
		assert.Containsf(t, catalog, p, "manager scope %q missing from catalog", p)
	}
	for _, p := range EmployeeScopes() {
		assert.Containsf(t, catalog, p, "employee scope %q missing from catalog", p)
	}
	assert.Len(t, ManagerScopes(), 43)
	assert.Len(t, EmployeeScopes(), 22)
	assert.NotContains(t, EmployeeScopes(), "delete_any_task")
}
