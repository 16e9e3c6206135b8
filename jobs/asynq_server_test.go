package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	tasks  []*asynq.Task
	err    error
	closed bool
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, r.err
}

func (r *recordingEnqueuer) Close() error {
	r.closed = true
	return nil
}

func TestClientEnqueueTenantProvisioned(t *testing.T) {
	enq := &recordingEnqueuer{}
	client := NewClientWith(enq)

	require.NoError(t, client.EnqueueTenantProvisioned(context.Background(), TenantProvisionedPayload{Schema: "tenant_acme", AdminUserID: 1}))
	require.Len(t, enq.tasks, 1)
	require.Equal(t, TaskTenantProvisioned, enq.tasks[0].Type())

	require.NoError(t, client.Close())
	require.True(t, enq.closed)
}

func TestClientEnqueuePropagatesError(t *testing.T) {
	enq := &recordingEnqueuer{err: errors.New("redis down")}
	err := NewClientWith(enq).EnqueueTenantProvisioned(context.Background(), TenantProvisionedPayload{Schema: "tenant_acme"})
	require.Error(t, err)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func serveHealth(t *testing.T, h *Handler) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	return rr
}

func TestHealthReportsQueueDepth(t *testing.T) {
	rr := serveHealth(t, NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Retry: 1, Archived: 2}}, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, queueHealth{Queue: "default", Pending: 4, Retry: 1, Failed: 2}, body)
}

func TestHealthUnavailable(t *testing.T) {
	rr := serveHealth(t, NewHandler(stubInspector{err: errors.New("redis down")}, nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHealthWithoutInspector(t *testing.T) {
	rr := serveHealth(t, NewHandler(nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"queue":"default","pending":0,"retry":0,"failed":0}`, rr.Body.String())
}
