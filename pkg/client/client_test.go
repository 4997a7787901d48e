package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darmiel/toki/internal/api"
	"github.com/darmiel/toki/internal/api/middleware"
	"github.com/darmiel/toki/internal/audit"
	"github.com/darmiel/toki/internal/core"
	"github.com/darmiel/toki/internal/dispatch"
	"github.com/darmiel/toki/internal/hooks"
	"github.com/darmiel/toki/internal/store"
)

var signingKey = []byte("client-test-key")

func newServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	s := store.NewMemoryStore([]string{"defrealm"}, nil)
	tok, err := s.InitToken(context.Background(), core.TokenSpec{Type: "totp"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	auditor := audit.NewInMemoryAuditor()
	manager := hooks.NewManager(dispatch.New(s, hooks.NewOwnerResolver(s)), []core.HandlerDefinition{
		{Name: "lock", Events: []string{"validate_check"}, Action: "disable"},
		{Name: "move", Events: []string{"token_init"}, Action: "set tokenrealm",
			Options: core.Options{"realm": core.StringValue("elsewhere")}},
	}, hooks.WithAuditor(auditor))

	ts := httptest.NewServer(api.NewServer(manager, s, auditor, nil).Routes(signingKey))
	t.Cleanup(ts.Close)
	return ts, tok.Serial
}

func TestClient(t *testing.T) {
	ts, serial := newServer(t)
	ctx := context.Background()

	token, err := middleware.SignAdminToken(signingKey, "tester", nil)
	if err != nil {
		t.Fatal(err)
	}
	c := New(ts.URL+"/", WithAuthToken(token))

	info, correlation, err := c.Info(ctx)
	if err != nil {
		t.Fatalf("Info() unexpected error: %v", err)
	}
	if info.Service != "Toki" || correlation == "" {
		t.Errorf("unexpected info %+v (correlation %q)", info, correlation)
	}

	catalog, _, err := c.ListActions(ctx)
	if err != nil {
		t.Fatalf("ListActions() unexpected error: %v", err)
	}
	if _, ok := catalog.Action("ENROLL"); !ok {
		t.Errorf("catalog is missing enroll: %v", catalog)
	}

	resp, _, err := c.TriggerEvent(ctx, "validate_check", api.EventPayload{
		Request: map[string]any{"serial": serial},
	})
	if err != nil {
		t.Fatalf("TriggerEvent() unexpected error: %v", err)
	}
	if len(resp.Outcomes) != 1 || resp.Outcomes[0].Outcome != "executed" {
		t.Errorf("unexpected outcomes: %+v", resp.Outcomes)
	}

	tok, _, err := c.GetToken(ctx, serial)
	if err != nil {
		t.Fatalf("GetToken() unexpected error: %v", err)
	}
	if tok.Active {
		t.Errorf("token should have been disabled by the handler")
	}

	tokens, _, err := c.ListTokens(ctx)
	if err != nil || len(tokens) != 1 {
		t.Errorf("ListTokens() = %v, %v", tokens, err)
	}

	realms, _, err := c.AddRealm(ctx, "elsewhere")
	if err != nil || len(realms) != 2 {
		t.Errorf("AddRealm() = %v, %v", realms, err)
	}

	entries, _, err := c.ListAudits(ctx, ListAuditsOpts{Handler: "lock", Limit: 5})
	if err != nil {
		t.Fatalf("ListAudits() unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Serial != serial {
		t.Errorf("unexpected audit entries: %+v", entries)
	}
}

func TestClient_Errors(t *testing.T) {
	ts, _ := newServer(t)
	ctx := context.Background()

	_, _, err := New(ts.URL, WithAuthToken("garbage")).ListTokens(ctx)
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("ListTokens() with bad token error = %v, want ErrInvalidSession", err)
	}
	_, _, err = New(ts.URL).ListTokens(ctx)
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("ListTokens() without token error = %v, want ErrInvalidSession", err)
	}

	c := New(ts.URL)
	_, _, err = c.TriggerEvent(ctx, "token_init", api.EventPayload{
		Audit: map[string]any{"serial": "UNKNOWN"},
	})
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("TriggerEvent() error = %v, want APIError", err)
	}
	if apiErr.CorrelationID == "" {
		t.Errorf("APIError without correlation id: %+v", apiErr)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("APIError status = %d, want %d", apiErr.StatusCode, http.StatusNotFound)
	}
}
