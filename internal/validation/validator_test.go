package validation

import (
	"context"
	"strings"
	"testing"

	"github.com/expr-lang/expr"

	"github.com/darmiel/toki/internal/actions"
	"github.com/darmiel/toki/internal/core"
)

type staticLists struct{}

func (staticLists) ListRealms(context.Context) ([]string, error) {
	return []string{"defrealm", "sales"}, nil
}

func (staticLists) ListTokenTypes(context.Context) ([]string, error) {
	return []string{"hotp", "totp", "registration"}, nil
}

func testCatalog(t *testing.T) actions.Catalog {
	t.Helper()
	catalog, err := actions.List(context.Background(), staticLists{}, staticLists{})
	if err != nil {
		t.Fatalf("actions.List() unexpected error: %v", err)
	}
	return catalog
}

func handler(name, action string, opts core.Options) core.HandlerDefinition {
	return core.HandlerDefinition{
		Name:    name,
		Events:  []string{"token_init"},
		Action:  action,
		Options: opts,
	}
}

func TestValidateHandlers_Valid(t *testing.T) {
	handlers := []core.HandlerDefinition{
		handler("realm", "set tokenrealm", core.Options{
			"realm":      core.StringValue("Sales"),
			"only_realm": core.IntValue(1),
		}),
		handler("enroll", "Enroll", core.Options{
			"tokentype": core.StringValue("registration"),
			"user":      core.BoolValue(true),
		}),
		handler("window", "set countwindow", core.Options{"count window": core.StringValue("12")}),
		handler("validity", "set validity", core.Options{
			"valid from": core.StringValue("+1d"),
			"valid till": core.StringValue("2027-01-01"),
		}),
		handler("info", "set tokeninfo", core.Options{"key": core.StringValue("source")}),
		handler("disable", "disable", nil),
	}
	handlers[5].Condition = `event == "token_init" && request.user != nil`

	got, err := ValidateHandlers(handlers, testCatalog(t))
	if err != nil {
		t.Fatalf("ValidateHandlers() unexpected error: %v", err)
	}
	if len(got) != len(handlers) {
		t.Fatalf("got %d handlers, want %d", len(got), len(handlers))
	}
	for i := range got {
		if got[i].Name != handlers[i].Name {
			t.Errorf("handler #%d = %q, want %q", i, got[i].Name, handlers[i].Name)
		}
	}

	program := got[5].CompiledCondition
	if program == nil {
		t.Fatalf("condition was not compiled")
	}
	env := ConditionEnv()
	env["event"] = "token_init"
	env["request"] = map[string]any{"user": "alice"}
	out, err := expr.Run(program, env)
	if err != nil {
		t.Fatalf("expr.Run() unexpected error: %v", err)
	}
	if out != true {
		t.Errorf("condition result = %v, want true", out)
	}
}

func TestValidateHandlers_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		handlers []core.HandlerDefinition
		wantErr  string
	}{
		{
			name:     "missing name",
			handlers: []core.HandlerDefinition{handler("", "disable", nil)},
			wantErr:  "missing name",
		},
		{
			name: "duplicate name",
			handlers: []core.HandlerDefinition{
				handler("a", "disable", nil),
				handler("a", "enable", nil),
			},
			wantErr: "not unique",
		},
		{
			name:     "no events",
			handlers: []core.HandlerDefinition{{Name: "a", Action: "disable"}},
			wantErr:  "not subscribed",
		},
		{
			name:     "unknown action",
			handlers: []core.HandlerDefinition{handler("a", "explode", nil)},
			wantErr:  "unknown action",
		},
		{
			name:     "missing required option",
			handlers: []core.HandlerDefinition{handler("a", "set tokeninfo", core.Options{"value": core.StringValue("x")})},
			wantErr:  "missing required option 'key'",
		},
		{
			name:     "empty required option",
			handlers: []core.HandlerDefinition{handler("a", "set tokenrealm", core.Options{"realm": core.StringValue("")})},
			wantErr:  "missing required option 'realm'",
		},
		{
			name:     "unknown option",
			handlers: []core.HandlerDefinition{handler("a", "disable", core.Options{"realm": core.StringValue("sales")})},
			wantErr:  "unknown option 'realm'",
		},
		{
			name: "bool option not boolean",
			handlers: []core.HandlerDefinition{handler("a", "set tokenrealm", core.Options{
				"realm":      core.StringValue("sales"),
				"only_realm": core.StringValue("yes"),
			})},
			wantErr: "not a boolean",
		},
		{
			name:     "value not enumerated",
			handlers: []core.HandlerDefinition{handler("a", "enroll", core.Options{"tokentype": core.StringValue("yubikey")})},
			wantErr:  "not one of",
		},
		{
			name:     "count window not an integer",
			handlers: []core.HandlerDefinition{handler("a", "set countwindow", core.Options{"count window": core.StringValue("ten")})},
			wantErr:  "not an integer",
		},
		{
			name:     "invalid validity",
			handlers: []core.HandlerDefinition{handler("a", "set validity", core.Options{"valid from": core.StringValue("tomorrow")})},
			wantErr:  "option 'valid from'",
		},
		{
			name: "condition does not compile",
			handlers: []core.HandlerDefinition{{
				Name: "a", Events: []string{"e"}, Action: "disable", Condition: "request.user ==",
			}},
			wantErr: "compiling condition",
		},
		{
			name: "condition is not boolean",
			handlers: []core.HandlerDefinition{{
				Name: "a", Events: []string{"e"}, Action: "disable", Condition: `"yes"`,
			}},
			wantErr: "compiling condition",
		},
	}

	catalog := testCatalog(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateHandlers(tt.handlers, catalog)
			if err == nil {
				t.Fatalf("ValidateHandlers() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateHandlers() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
