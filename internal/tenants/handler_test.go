package tenants

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/taskeri/taskeri/internal/provisioning"
)

func serveRegister(t *testing.T, reg *Registrar, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/tenant-users", NewHandler(nil, reg).MountRoutes)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tenant-users/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rr, req)
	return rr
}

const registration = `{"email":"alice@acme.io","first_name":"Alice","last_name":"Admin","password":"correct-horse","tenant_schema":"acme"}`

func TestRegisterEndpoint(t *testing.T) {
	rr := serveRegister(t, NewRegistrar(newMemoryDirectory(), &stubProvisioner{}, nil, nil), registration)
	require.Equal(t, http.StatusOK, rr.Code)

	var tu TenantUser
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tu))
	require.Equal(t, "acme", tu.TenantSchema)
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	dir := newMemoryDirectory()
	dir.byEmail["alice@acme.io"] = TenantUser{ID: 1, Email: "alice@acme.io", TenantSchema: "acme"}

	rr := serveRegister(t, NewRegistrar(dir, &stubProvisioner{}, nil, nil), registration)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "Email already exists.")
}

func TestRegisterEndpointProvisioningFailure(t *testing.T) {
	perr := &provisioning.Error{Namespace: "tenant_acme", Stage: provisioning.StageSchema, Err: errors.New("boom")}
	rr := serveRegister(t, NewRegistrar(newMemoryDirectory(), &stubProvisioner{err: perr}, nil, nil), registration)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "boom")
}

func TestRegisterEndpointRejectsUnknownFields(t *testing.T) {
	rr := serveRegister(t, NewRegistrar(newMemoryDirectory(), &stubProvisioner{}, nil, nil), `{"email":"a@b.io","role":"Admin"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
