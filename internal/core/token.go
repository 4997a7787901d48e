package core

import "time"

// Owner identifies the user a token is assigned to.
type Owner struct {
	Login string `json:"login" yaml:"login" mapstructure:"login"`
	Realm string `json:"realm,omitempty" yaml:"realm,omitempty" mapstructure:"realm"`
}

func (o Owner) String() string {
	if o.Realm == "" {
		return o.Login
	}
	return o.Login + "@" + o.Realm
}

// TokenSpec holds the parameters for enrolling a new token.
type TokenSpec struct {
	// Type is the token type (e.g. "hotp", "totp").
	Type string

	// GenerateKey asks the token library to generate the token secret.
	GenerateKey bool

	// Realm is the realm the token is put into. Empty means the owner's realm (if any).
	Realm string
}

// Token is the state of a token record as kept by the token library.
type Token struct {
	// Serial is the unique identifier of the token.
	Serial string `json:"serial"`

	// Type is the token type.
	Type string `json:"type"`

	// Active is false for disabled tokens.
	Active bool `json:"active"`

	Description string `json:"description"`

	// Owner is nil for unassigned tokens.
	Owner *Owner `json:"owner,omitempty"`

	// Realms the token belongs to.
	Realms []string `json:"realms"`

	CountWindow int `json:"count_window"`

	// Info is the auxiliary key/value store of the token.
	Info map[string]string `json:"info,omitempty"`

	// ValidityStart and ValidityEnd bound the validity window, formatted in the storage date format.
	// Empty means unbounded.
	ValidityStart string `json:"validity_period_start,omitempty"`
	ValidityEnd   string `json:"validity_period_end,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
