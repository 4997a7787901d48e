package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/darmiel/toki/internal/actions"
	"github.com/darmiel/toki/internal/core"
	"github.com/darmiel/toki/internal/logging"
	"github.com/darmiel/toki/internal/validity"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)

func newTestDispatcher(lib *fakeLibrary, owners core.OwnerResolver, rec *logging.Recorder) *Dispatcher {
	return New(lib, owners,
		WithClock(func() time.Time { return fixedNow }),
		WithReporter(rec),
	)
}

func withSerial(serial string, opts core.Options) core.EventContext {
	return core.EventContext{
		Request: map[string]any{"serial": serial},
		Options: opts,
	}
}

func TestDispatch_TargetActions(t *testing.T) {
	tests := []struct {
		action string
		opts   core.Options
		want   []call
	}{
		{
			action: actions.NameSetTokenRealm,
			opts:   core.Options{"realm": core.StringValue("sales")},
			want:   []call{{Op: "SetRealms", Serial: "S1", Args: []any{[]string{"sales"}, true}}},
		},
		{
			action: actions.NameSetTokenRealm,
			opts:   core.Options{"realm": core.StringValue("sales"), "only_realm": core.BoolValue(true)},
			want:   []call{{Op: "SetRealms", Serial: "S1", Args: []any{[]string{"sales"}, false}}},
		},
		{
			action: actions.NameDelete,
			want:   []call{{Op: "RemoveToken", Serial: "S1"}},
		},
		{
			action: actions.NameDisable,
			want:   []call{{Op: "EnableToken", Serial: "S1", Args: []any{false}}},
		},
		{
			action: actions.NameEnable,
			want:   []call{{Op: "EnableToken", Serial: "S1", Args: []any{true}}},
		},
		{
			action: actions.NameUnassign,
			want:   []call{{Op: "UnassignToken", Serial: "S1"}},
		},
		{
			action: actions.NameSetDescription,
			opts:   core.Options{"description": core.StringValue("lost on 2026-03-14")},
			want:   []call{{Op: "SetDescription", Serial: "S1", Args: []any{"lost on 2026-03-14"}}},
		},
		{
			action: actions.NameSetDescription,
			want:   []call{{Op: "SetDescription", Serial: "S1", Args: []any{""}}},
		},
		{
			action: actions.NameSetCountWindow,
			opts:   core.Options{"count window": core.StringValue("12")},
			want:   []call{{Op: "SetCountWindow", Serial: "S1", Args: []any{12}}},
		},
		{
			action: actions.NameSetCountWindow,
			opts:   core.Options{"count window": core.IntValue(7)},
			want:   []call{{Op: "SetCountWindow", Serial: "S1", Args: []any{7}}},
		},
		{
			action: actions.NameSetCountWindow,
			want:   []call{{Op: "SetCountWindow", Serial: "S1", Args: []any{DefaultCountWindow}}},
		},
		{
			action: actions.NameSetTokenInfo,
			opts:   core.Options{"key": core.StringValue("hashlib"), "value": core.StringValue("sha256")},
			want:   []call{{Op: "AddTokenInfo", Serial: "S1", Args: []any{"hashlib", "sha256"}}},
		},
		{
			action: actions.NameSetTokenInfo,
			opts:   core.Options{"key": core.StringValue("hashlib")},
			want:   []call{{Op: "AddTokenInfo", Serial: "S1", Args: []any{"hashlib", ""}}},
		},
		{
			action: actions.NameSetValidity,
			opts: core.Options{
				"valid from": core.StringValue("+10m"),
				"valid till": core.StringValue("+7d"),
			},
			want: []call{
				{Op: "SetValidityPeriodStart", Serial: "S1", Args: []any{"2026-03-14T09:36+0000"}},
				{Op: "SetValidityPeriodEnd", Serial: "S1", Args: []any{"2026-03-21T09:26+0000"}},
			},
		},
		{
			action: "DISABLE",
			want:   []call{{Op: "EnableToken", Serial: "S1", Args: []any{false}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			lib := &fakeLibrary{}
			d := newTestDispatcher(lib, nil, logging.NewRecorder())

			res, err := d.Dispatch(context.Background(), tt.action, withSerial("S1", tt.opts))
			if err != nil {
				t.Fatalf("Dispatch() unexpected error: %v", err)
			}
			if res.Outcome != OutcomeExecuted {
				t.Errorf("Outcome = %s, want %s", res.Outcome, OutcomeExecuted)
			}
			if res.Serial != "S1" {
				t.Errorf("Serial = %q, want S1", res.Serial)
			}
			if diff := cmp.Diff(tt.want, lib.Calls()); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecute_NoSerialSkipsTargetActions(t *testing.T) {
	for _, name := range actions.Names() {
		kind, _ := actions.Lookup(name)
		if !kind.RequiresTarget() {
			continue
		}
		t.Run(name, func(t *testing.T) {
			lib := &fakeLibrary{}
			rec := logging.NewRecorder()
			d := newTestDispatcher(lib, nil, rec)

			ec := core.EventContext{
				Request:  map[string]any{"user": "alice"},
				Response: map[string]any{"result": map[string]any{"status": true}, "detail": map[string]any{}},
				Audit:    map[string]any{"serial": ""},
				Options:  core.Options{"realm": core.StringValue("r"), "count window": core.StringValue("x")},
			}
			ok, err := d.Execute(context.Background(), name, ec)
			if err != nil {
				t.Fatalf("Execute() unexpected error: %v", err)
			}
			if !ok {
				t.Errorf("Execute() = false, want true")
			}
			if calls := lib.Calls(); len(calls) != 0 {
				t.Errorf("expected no collaborator calls, got %+v", calls)
			}
			lines := rec.Lines()
			if len(lines) != 1 || lines[0].Level != "warn" {
				t.Errorf("expected one warning, got %+v", lines)
			}

			res, _ := d.Dispatch(context.Background(), name, ec)
			if res.Outcome != OutcomeSkipped {
				t.Errorf("Outcome = %s, want %s", res.Outcome, OutcomeSkipped)
			}
		})
	}
}

func TestExecute_UnknownActionIsIgnored(t *testing.T) {
	lib := &fakeLibrary{}
	owners := &fakeOwners{}
	d := newTestDispatcher(lib, owners, logging.NewRecorder())

	for _, name := range []string{"sendmail", "set-tokenrealm", ""} {
		ok, err := d.Execute(context.Background(), name, withSerial("S1", core.Options{"user": core.BoolValue(true)}))
		if err != nil || !ok {
			t.Errorf("Execute(%q) = %v, %v; want true, nil", name, ok, err)
		}
		res, _ := d.Dispatch(context.Background(), name, withSerial("S1", nil))
		if res.Outcome != OutcomeIgnored {
			t.Errorf("Dispatch(%q) outcome = %s, want %s", name, res.Outcome, OutcomeIgnored)
		}
	}
	if calls := lib.Calls(); len(calls) != 0 {
		t.Errorf("expected no collaborator calls, got %+v", calls)
	}
	if owners.calls != 0 {
		t.Errorf("owner resolver called %d times, want 0", owners.calls)
	}
}

func TestDispatch_SetValidityStartOnly(t *testing.T) {
	lib := &fakeLibrary{}
	d := newTestDispatcher(lib, nil, logging.NewRecorder())

	_, err := d.Dispatch(context.Background(), actions.NameSetValidity,
		withSerial("S1", core.Options{"valid from": core.StringValue("+1d")}))
	if err != nil {
		t.Fatalf("Dispatch() unexpected error: %v", err)
	}

	want := []call{{
		Op:     "SetValidityPeriodStart",
		Serial: "S1",
		Args:   []any{fixedNow.Add(24 * time.Hour).Format(validity.DateFormat)},
	}}
	if diff := cmp.Diff(want, lib.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_SetValidityAbsolute(t *testing.T) {
	lib := &fakeLibrary{}
	d := newTestDispatcher(lib, nil, logging.NewRecorder())

	_, err := d.Dispatch(context.Background(), actions.NameSetValidity,
		withSerial("S1", core.Options{"valid till": core.StringValue("2027-01-31T23:59+0100")}))
	if err != nil {
		t.Fatalf("Dispatch() unexpected error: %v", err)
	}

	calls := lib.Calls()
	if len(calls) != 1 || calls[0].Op != "SetValidityPeriodEnd" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	got, err := time.Parse(validity.DateFormat, calls[0].Args[0].(string))
	if err != nil {
		t.Fatalf("persisted end not in storage format: %v", err)
	}
	want := time.Date(2027, 1, 31, 22, 59, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("persisted end = %v, want %v", got, want)
	}
}

func TestDispatch_InvalidOptions(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		opts    core.Options
		wantErr []error
	}{
		{
			name:    "count window not numeric",
			action:  actions.NameSetCountWindow,
			opts:    core.Options{"count window": core.StringValue("fifty")},
			wantErr: []error{ErrInvalidOption},
		},
		{
			name:    "count window boolean",
			action:  actions.NameSetCountWindow,
			opts:    core.Options{"count window": core.BoolValue(true)},
			wantErr: []error{ErrInvalidOption},
		},
		{
			name:    "valid from garbage",
			action:  actions.NameSetValidity,
			opts:    core.Options{"valid from": core.StringValue("next week")},
			wantErr: []error{ErrInvalidOption, validity.ErrInvalidExpression},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := &fakeLibrary{}
			d := newTestDispatcher(lib, nil, logging.NewRecorder())

			ok, err := d.Execute(context.Background(), tt.action, withSerial("S1", tt.opts))
			if ok {
				t.Errorf("Execute() = true, want false")
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("Execute() error = %v, want %v", err, want)
				}
			}
			if calls := lib.Calls(); len(calls) != 0 {
				t.Errorf("expected no collaborator calls, got %+v", calls)
			}
		})
	}
}

func TestDispatch_SetValidityBoundsAreIndependent(t *testing.T) {
	lib := &fakeLibrary{}
	d := newTestDispatcher(lib, nil, logging.NewRecorder())

	// valid start, broken end: the start is still applied
	_, err := d.Dispatch(context.Background(), actions.NameSetValidity, withSerial("S1", core.Options{
		"valid from": core.StringValue("+1h"),
		"valid till": core.StringValue("soon"),
	}))
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("Dispatch() error = %v, want ErrInvalidOption", err)
	}
	calls := lib.Calls()
	if len(calls) != 1 || calls[0].Op != "SetValidityPeriodStart" {
		t.Errorf("unexpected calls: %+v", calls)
	}
}

func TestExecute_CollaboratorErrorPropagates(t *testing.T) {
	boom := errors.New("database is gone")
	lib := &fakeLibrary{err: boom}
	d := newTestDispatcher(lib, nil, logging.NewRecorder())

	for _, name := range []string{actions.NameDelete, actions.NameSetTokenInfo, actions.NameEnroll} {
		ok, err := d.Execute(context.Background(), name, withSerial("S1", core.Options{
			"key":       core.StringValue("k"),
			"tokentype": core.StringValue("hotp"),
		}))
		if ok {
			t.Errorf("Execute(%q) = true, want false", name)
		}
		if !errors.Is(err, boom) {
			t.Errorf("Execute(%q) error = %v, want wrapped %v", name, err, boom)
		}
	}
}

func TestDispatch_EnrollOwnerCoercion(t *testing.T) {
	alice := &core.Owner{Login: "alice", Realm: "defrealm"}

	tests := []struct {
		name      string
		user      core.Value
		wantOwner *core.Owner
	}{
		{name: "string one", user: core.StringValue("1"), wantOwner: alice},
		{name: "integer one", user: core.IntValue(1), wantOwner: alice},
		{name: "boolean true", user: core.BoolValue(true), wantOwner: alice},
		{name: "absent", user: core.Value{}, wantOwner: nil},
		{name: "string true", user: core.StringValue("true"), wantOwner: nil},
		{name: "string zero", user: core.StringValue("0"), wantOwner: nil},
		{name: "integer two", user: core.IntValue(2), wantOwner: nil},
		{name: "boolean false", user: core.BoolValue(false), wantOwner: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := &fakeLibrary{}
			owners := &fakeOwners{owner: alice}
			rec := logging.NewRecorder()
			d := newTestDispatcher(lib, owners, rec)

			opts := core.Options{"tokentype": core.StringValue("hotp"), "realm": core.StringValue("defrealm")}
			if tt.user.IsSet() {
				opts["user"] = tt.user
			}
			// enroll ignores the target, even if present
			res, err := d.Dispatch(context.Background(), "Enroll", withSerial("OTHER", opts))
			if err != nil {
				t.Fatalf("Dispatch() unexpected error: %v", err)
			}
			if res.Serial != "hotp0001" {
				t.Errorf("Serial = %q, want hotp0001", res.Serial)
			}

			want := []call{{
				Op:   "InitToken",
				Args: []any{core.TokenSpec{Type: "hotp", GenerateKey: true, Realm: "defrealm"}, tt.wantOwner},
			}}
			if diff := cmp.Diff(want, lib.Calls()); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}

			lines := rec.Lines()
			if last := lines[len(lines)-1]; last.Message != "new token hotp0001 enrolled" {
				t.Errorf("last diagnostic = %q", last.Message)
			}
		})
	}
}

func TestDispatch_EnrollWithoutRealm(t *testing.T) {
	lib := &fakeLibrary{}
	d := newTestDispatcher(lib, nil, logging.NewRecorder())

	// no owner resolver configured: user=1 resolves to nobody
	_, err := d.Dispatch(context.Background(), actions.NameEnroll, core.EventContext{
		Options: core.Options{"tokentype": core.StringValue("totp"), "user": core.StringValue("1")},
	})
	if err != nil {
		t.Fatalf("Dispatch() unexpected error: %v", err)
	}
	want := []call{{
		Op:   "InitToken",
		Args: []any{core.TokenSpec{Type: "totp", GenerateKey: true, Realm: ""}, (*core.Owner)(nil)},
	}}
	if diff := cmp.Diff(want, lib.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_EnrollOwnerLookupError(t *testing.T) {
	boom := errors.New("user store unavailable")
	lib := &fakeLibrary{}
	d := newTestDispatcher(lib, &fakeOwners{err: boom}, logging.NewRecorder())

	_, err := d.Dispatch(context.Background(), actions.NameEnroll, core.EventContext{
		Options: core.Options{"tokentype": core.StringValue("totp"), "user": core.BoolValue(true)},
	})
	if !errors.Is(err, boom) {
		t.Errorf("Dispatch() error = %v, want wrapped %v", err, boom)
	}
	if calls := lib.Calls(); len(calls) != 0 {
		t.Errorf("expected no token creation, got %+v", calls)
	}
}

type recorderKey struct{}

func TestDispatch_ContextReporter(t *testing.T) {
	fallback := logging.NewRecorder()
	d := New(&fakeLibrary{}, nil,
		WithContextReporter(func(ctx context.Context) Reporter {
			if rec, ok := ctx.Value(recorderKey{}).(*logging.Recorder); ok {
				return rec
			}
			return fallback
		}),
	)

	scoped := logging.NewRecorder()
	ctx := context.WithValue(context.Background(), recorderKey{}, scoped)
	if _, err := d.Dispatch(ctx, actions.NameDisable, core.EventContext{}); err != nil {
		t.Fatalf("Dispatch() unexpected error: %v", err)
	}
	if _, err := d.Dispatch(ctx, actions.NameEnable, withSerial("S1", nil)); err != nil {
		t.Fatalf("Dispatch() unexpected error: %v", err)
	}

	lines := scoped.Lines()
	if len(lines) != 2 || lines[0].Level != "warn" || lines[1].Message != "enable for token S1" {
		t.Errorf("unexpected diagnostics of the dispatch context: %+v", lines)
	}
	if got := fallback.Lines(); len(got) != 0 {
		t.Errorf("expected nothing reported to the fallback, got %+v", got)
	}
}
