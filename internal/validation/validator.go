package validation

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"

	"github.com/darmiel/toki/internal/actions"
	"github.com/darmiel/toki/internal/core"
	"github.com/darmiel/toki/internal/validity"
)

// ConditionEnv is the environment trigger conditions are compiled and evaluated against.
func ConditionEnv() map[string]any {
	return map[string]any{
		"event":    "",
		"request":  map[string]any{},
		"response": map[string]any{},
		"audit":    map[string]any{},
	}
}

// ValidateHandlers checks handler definitions against the action catalog and compiles their
// conditions. It returns the validated definitions in their original order.
func ValidateHandlers(handlers []core.HandlerDefinition, catalog actions.Catalog) ([]core.HandlerDefinition, error) {
	seenNames := make(map[string]struct{})
	var validHandlers []core.HandlerDefinition

	for i, h := range handlers {
		if h.Name == "" {
			return nil, fmt.Errorf("handler #%d missing name", i)
		}
		if _, exists := seenNames[h.Name]; exists {
			return nil, fmt.Errorf("handler name '%s' is not unique", h.Name)
		}
		seenNames[h.Name] = struct{}{}

		if len(h.Events) == 0 {
			return nil, fmt.Errorf("handler '%s' is not subscribed to any event", h.Name)
		}
		for _, e := range h.Events {
			if strings.TrimSpace(e) == "" {
				return nil, fmt.Errorf("handler '%s' has an empty event name", h.Name)
			}
		}

		descriptors, ok := catalog.Action(h.Action)
		if !ok {
			return nil, fmt.Errorf("handler '%s' references unknown action '%s'", h.Name, h.Action)
		}
		if err := validateOptions(h.Options, descriptors); err != nil {
			return nil, fmt.Errorf("handler '%s' (%s): %w", h.Name, h.Action, err)
		}

		if h.Condition != "" {
			// compile and validate expression
			out, err := expr.Compile(h.Condition, expr.Env(ConditionEnv()), expr.AsBool())
			if err != nil {
				return nil, fmt.Errorf("compiling condition for handler '%s': %w", h.Name, err)
			}
			h.CompiledCondition = out
		}

		validHandlers = append(validHandlers, h)
	}

	return validHandlers, nil
}

func validateOptions(opts core.Options, descriptors map[string]core.ActionDescriptor) error {
	for _, name := range actions.OptionNames(descriptors) {
		d := descriptors[name]
		if d.Required && opts.String(name, "") == "" {
			return fmt.Errorf("missing required option '%s'", name)
		}
	}

	names := make([]string, 0, len(opts))
	for name := range opts {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		d, known := descriptors[name]
		if !known {
			return fmt.Errorf("unknown option '%s'", name)
		}
		v, ok := opts.Get(name)
		if !ok {
			continue
		}
		if err := validateValue(d, v); err != nil {
			return fmt.Errorf("option '%s': %w", name, err)
		}
	}
	return nil
}

func validateValue(d core.ActionDescriptor, v core.Value) error {
	if d.Type == core.TypeBool {
		if !booleanLike(v) {
			return fmt.Errorf("'%s' is not a boolean, use true/false or 1/0", v)
		}
		return nil
	}

	s := v.String()
	if s == "" {
		return nil
	}
	if d.Enumerated() && !slices.ContainsFunc(d.Values, func(allowed string) bool {
		return strings.EqualFold(allowed, s)
	}) {
		return fmt.Errorf("'%s' is not one of [%s]", s, strings.Join(d.Values, ", "))
	}

	switch d.Name {
	case actions.OptionCountWindow:
		if _, err := v.Int(); err != nil {
			return err
		}
	case actions.OptionValidFrom, actions.OptionValidTill:
		if _, err := validity.Parse(s, time.Now()); err != nil {
			return err
		}
	}
	return nil
}

func booleanLike(v core.Value) bool {
	switch v.Kind() {
	case core.KindBool:
		return true
	case core.KindInt:
		n, _ := v.Int()
		return n == 0 || n == 1
	case core.KindString:
		return v.String() == "0" || v.String() == "1"
	default:
		return false
	}
}
