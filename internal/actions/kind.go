package actions

import "strings"

// Kind is one of the actions a token event handler can perform.
type Kind int

const (
	Unknown Kind = iota
	SetTokenRealm
	Delete
	Unassign
	Disable
	Enable
	Enroll
	SetDescription
	SetValidity
	SetCountWindow
	SetTokenInfo
)

// identifiers as used in handler definitions
const (
	NameSetTokenRealm  = "set tokenrealm"
	NameDelete         = "delete"
	NameUnassign       = "unassign"
	NameDisable        = "disable"
	NameEnable         = "enable"
	NameEnroll         = "enroll"
	NameSetDescription = "set description"
	NameSetValidity    = "set validity"
	NameSetCountWindow = "set countwindow"
	NameSetTokenInfo   = "set tokeninfo"
)

// option names
const (
	OptionRealm       = "realm"
	OptionOnlyRealm   = "only_realm"
	OptionTokenType   = "tokentype"
	OptionUser        = "user"
	OptionDescription = "description"
	OptionValidFrom   = "valid from"
	OptionValidTill   = "valid till"
	OptionCountWindow = "count window"
	OptionKey         = "key"
	OptionValue       = "value"
)

var kindNames = map[Kind]string{
	SetTokenRealm:  NameSetTokenRealm,
	Delete:         NameDelete,
	Unassign:       NameUnassign,
	Disable:        NameDisable,
	Enable:         NameEnable,
	Enroll:         NameEnroll,
	SetDescription: NameSetDescription,
	SetValidity:    NameSetValidity,
	SetCountWindow: NameSetCountWindow,
	SetTokenInfo:   NameSetTokenInfo,
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// Lookup parses an action identifier. Matching is case-insensitive and ignores
// surrounding whitespace; unknown identifiers return Unknown and false.
func Lookup(name string) (Kind, bool) {
	k, ok := kindsByName[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// RequiresTarget reports whether the action operates on an existing token
// that has to be resolved from the event.
func (k Kind) RequiresTarget() bool {
	switch k {
	case SetTokenRealm, Delete, Unassign, Disable, Enable,
		SetDescription, SetValidity, SetCountWindow, SetTokenInfo:
		return true
	default:
		return false
	}
}

// Names returns all action identifiers in a stable order.
func Names() []string {
	return []string{
		NameSetTokenRealm,
		NameDelete,
		NameUnassign,
		NameDisable,
		NameEnable,
		NameEnroll,
		NameSetDescription,
		NameSetValidity,
		NameSetCountWindow,
		NameSetTokenInfo,
	}
}
