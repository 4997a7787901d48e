package core

import "time"

type AuditEntry struct {
	// ID is the correlation ID of the request that triggered the event
	ID string `json:"id"`

	// Time is the timestamp of the dispatch
	Time time.Time `json:"time"`

	// Event is the name of the triggering event (e.g. "token_init")
	Event string `json:"event"`

	// Handler is the name of the handler definition that was dispatched
	Handler string `json:"handler,omitempty"`

	// Action is the configured action of the handler
	Action string `json:"action,omitempty"`

	// Serial of the token acted upon, if any
	Serial string `json:"serial,omitempty"`

	// Owner of the token, if known
	Owner string `json:"owner,omitempty"`

	// Outcome of the dispatch (executed, skipped, ignored)
	Outcome string `json:"outcome,omitempty"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Info contains additional details
	Info map[string]any `json:"info,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}

// AuditReader is implemented by auditors that can be queried.
type AuditReader interface {
	GetRecent(limit int) ([]AuditEntry, error)
	Find(filter func(entry AuditEntry) bool, limit int) ([]AuditEntry, error)
}
