package core

import "github.com/expr-lang/expr/vm"

// HandlerDefinition binds an action (with options) to one or more events.
type HandlerDefinition struct {
	// Name is a unique, human-readable identifier for logs/debugging.
	Name string `yaml:"name" json:"name"`

	// Events the handler is subscribed to (e.g. "token_init", "validate_check").
	Events []string `yaml:"events" json:"events"`

	// Action is the action identifier, matched case-insensitively.
	Action string `yaml:"action" json:"action"`

	// Options are the configured values for the action's options.
	Options Options `yaml:"options" json:"options,omitempty"`

	// Condition is an optional boolean expression deciding whether the handler runs.
	// It sees the variables event, request, response and audit.
	Condition string `yaml:"condition" json:"condition,omitempty"`

	// Ordering defines the order handlers of the same event run in (ascending).
	Ordering int `yaml:"ordering" json:"ordering"`

	// Active can be set to false to keep a handler configured but never run it.
	// Unset means active.
	Active *bool `yaml:"active" json:"active,omitempty"`

	// CompiledCondition holds the pre-compiled form of Condition.
	CompiledCondition *vm.Program `yaml:"-" json:"-"`
}

func (h HandlerDefinition) IsActive() bool {
	return h.Active == nil || *h.Active
}

// SubscribedTo reports whether the handler listens to the given event.
func (h HandlerDefinition) SubscribedTo(event string) bool {
	for _, e := range h.Events {
		if e == event {
			return true
		}
	}
	return false
}
