package audit

import (
	"fmt"
	"strings"

	"github.com/darmiel/toki/internal/config"
	"github.com/darmiel/toki/internal/core"
)

const (
	TypeMemory = "memory"
	TypeFile   = "file"
)

// New creates the auditor described by cfg. A disabled audit config yields a NoopAuditor.
func New(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return NewNoopAuditor(), nil
	}
	switch cfg.Type {
	case TypeMemory, "":
		return NewInMemoryAuditor(), nil
	case TypeFile:
		return NewFileAuditor(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown audit type '%s'", cfg.Type)
	}
}

// Query narrows down audit entries. Empty fields match everything.
type Query struct {
	Event   string
	Handler string
	Serial  string
	Owner   string
	ID      string

	// FailedOnly only matches entries of dispatches that returned an error.
	FailedOnly bool
}

// Filter returns a predicate for AuditReader.Find. String fields are compared case-insensitively.
func (q Query) Filter() func(entry core.AuditEntry) bool {
	return func(entry core.AuditEntry) bool {
		if q.FailedOnly && entry.Success {
			return false
		}
		return matches(q.Event, entry.Event) &&
			matches(q.Handler, entry.Handler) &&
			matches(q.Serial, entry.Serial) &&
			matches(q.Owner, entry.Owner) &&
			matches(q.ID, entry.ID)
	}
}

// IsEmpty reports whether the query matches every entry.
func (q Query) IsEmpty() bool {
	return q == Query{}
}

func matches(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}
