package cmd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseKeyValues(t *testing.T) {
	got, err := parseKeyValues([]string{"serial=OATH0001", " user =alice", "description=a=b", "empty="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{
		"serial":      "OATH0001",
		"user":        "alice",
		"description": "a=b",
		"empty":       "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"novalue", "=x", " =x"} {
		if _, err := parseKeyValues([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestBuildEventPayload(t *testing.T) {
	t.Cleanup(func() {
		triggerRequest, triggerResponse, triggerAudit, triggerPayload = nil, "", nil, ""
	})

	triggerRequest = []string{"user=alice", "realm=defrealm"}
	triggerResponse = `{"detail": {"serial": "HOTP0001"}}`
	triggerAudit = []string{"serial=HOTP0001"}

	payload, err := buildEventPayload()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"user": "alice", "realm": "defrealm"}, payload.Request); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"detail": map[string]any{"serial": "HOTP0001"}}, payload.Response); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
	if payload.Audit["serial"] != "HOTP0001" {
		t.Errorf("unexpected audit: %v", payload.Audit)
	}

	triggerRequest, triggerResponse, triggerAudit = nil, "", nil
	triggerPayload = `{"request": {"serial": "OATH0001"}}`
	payload, err = buildEventPayload()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Request["serial"] != "OATH0001" || payload.Response != nil {
		t.Errorf("unexpected payload: %+v", payload)
	}

	triggerPayload = `{`
	if _, err := buildEventPayload(); err == nil {
		t.Error("expected error for malformed payload")
	}
}
