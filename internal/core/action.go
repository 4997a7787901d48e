package core

// ValueType is the declared type of an action option, as shown to configuration tooling.
type ValueType string

const (
	TypeString ValueType = "str"
	TypeBool   ValueType = "bool"
)

// ActionDescriptor describes one configurable option of an action.
type ActionDescriptor struct {
	// Name is the option key as used in handler options (e.g. "valid from").
	Name string `json:"name" yaml:"name"`

	// Type is the declared value type of the option.
	Type ValueType `json:"type" yaml:"type"`

	// Required marks options that must be set for the handler to be valid.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`

	// Description is a human-readable explanation of the option.
	Description string `json:"description" yaml:"description"`

	// Values lists the allowed values of an enumerated option, in order.
	// Nil means free-form input.
	Values []string `json:"value,omitzero" yaml:"value,omitempty"`
}

// Enumerated reports whether the option only accepts one of Values.
func (d ActionDescriptor) Enumerated() bool {
	return d.Values != nil
}
