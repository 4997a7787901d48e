package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darmiel/toki/internal/dispatch"
	"github.com/darmiel/toki/internal/hooks"
	"github.com/darmiel/toki/internal/logging"
	"github.com/darmiel/toki/internal/store"
	"github.com/darmiel/toki/internal/tasks"
)

func TestTaskRoutes(t *testing.T) {
	s := store.NewMemoryStore([]string{"defrealm"}, nil)
	manager := hooks.NewManager(dispatch.New(s, hooks.NewOwnerResolver(s)), nil)

	tm := tasks.NewManager()
	t.Cleanup(tm.Close)
	tm.Register("reload-handlers", 0, func(_ context.Context, logger logging.InternalLogger) error {
		logger.Info("nothing to reload")
		return nil
	})
	if _, err := tm.RunNow(context.Background(), "reload-handlers"); err != nil {
		t.Fatal(err)
	}

	srv := NewServer(manager, s, nil, nil, WithTasks(tm))
	hts := httptest.NewServer(srv.Routes(signingKey))
	t.Cleanup(hts.Close)
	ts := &testServer{Server: hts, store: s}
	token := adminToken(t)

	resp := ts.do(t, http.MethodGet, ListTasksRoute, "", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list tasks: expected 200, got %d", resp.StatusCode)
	}
	status := decode[[]tasks.TaskStatus](t, resp)
	if len(status) != 1 || status[0].Name != "reload-handlers" || status[0].LastResult != tasks.ResultSuccess {
		t.Errorf("unexpected task status: %+v", status)
	}

	resp = ts.do(t, http.MethodGet, "/v1/admin/tasks/reload-handlers/logs", "", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("task logs: expected 200, got %d", resp.StatusCode)
	}
	logs := decode[[]tasks.LogEntry](t, resp)
	if len(logs) != 3 || logs[1].Message != "nothing to reload" {
		t.Errorf("unexpected task logs: %+v", logs)
	}

	resp = ts.do(t, http.MethodPost, "/v1/admin/tasks/reload-handlers/trigger", "", token)
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("trigger: expected 202, got %d", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodPost, "/v1/admin/tasks/unknown/trigger", "", token)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("trigger unknown: expected 404, got %d", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodGet, ListTasksRoute, "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("list tasks without token: expected 401, got %d", resp.StatusCode)
	}
}
