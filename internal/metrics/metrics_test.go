package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	m := New()
	if m.Registry == nil {
		t.Fatal("expected non-nil Registry")
	}
	m.RecordEvent("token_init")
	fams, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(fams) == 0 {
		t.Fatal("expected at least one metric family after increment")
	}
}

func TestRecordDispatch(t *testing.T) {
	m := New()

	m.RecordDispatch("disable", "executed", time.Millisecond)
	m.RecordDispatch("disable", "executed", time.Millisecond)
	m.RecordDispatch("disable", "skipped", time.Millisecond)
	m.RecordDispatch("enroll", OutcomeFailed, time.Millisecond)

	if v := testutil.ToFloat64(m.DispatchesTotal.WithLabelValues("disable", "executed")); v != 2 {
		t.Fatalf("expected executed count 2, got %v", v)
	}
	if v := testutil.ToFloat64(m.DispatchesTotal.WithLabelValues("disable", "skipped")); v != 1 {
		t.Fatalf("expected skipped count 1, got %v", v)
	}
	if v := testutil.ToFloat64(m.DispatchesTotal.WithLabelValues("enroll", OutcomeFailed)); v != 1 {
		t.Fatalf("expected failed count 1, got %v", v)
	}
}

func TestSetHandlersLoaded(t *testing.T) {
	m := New()

	m.SetHandlersLoaded(4)
	if v := testutil.ToFloat64(m.HandlersLoaded); v != 4 {
		t.Fatalf("expected 4 handlers, got %v", v)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New()

	m.RecordHTTPRequest("POST", "/v1/events/{event}", 200, 5*time.Millisecond)
	if v := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/events/{event}", "200")); v != 1 {
		t.Fatalf("expected request count 1, got %v", v)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.IncAuthFailures()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	body, _ := io.ReadAll(rec.Result().Body)
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(string(body), "toki_auth_failures_total") {
		t.Fatal("expected response to contain toki_auth_failures_total")
	}
}
