package hooks

import (
	"sort"

	"github.com/darmiel/toki/internal/core"
)

// Set is an immutable, ordered collection of handler definitions.
type Set struct {
	handlers []core.HandlerDefinition
}

// NewSet orders the definitions by Ordering, then Name.
func NewSet(handlers []core.HandlerDefinition) *Set {
	sorted := make([]core.HandlerDefinition, len(handlers))
	copy(sorted, handlers)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Ordering != sorted[j].Ordering {
			return sorted[i].Ordering < sorted[j].Ordering
		}
		return sorted[i].Name < sorted[j].Name
	})
	return &Set{handlers: sorted}
}

func (s *Set) Len() int {
	return len(s.handlers)
}

// Handlers returns all definitions in dispatch order.
func (s *Set) Handlers() []core.HandlerDefinition {
	out := make([]core.HandlerDefinition, len(s.handlers))
	copy(out, s.handlers)
	return out
}

// Subscribed returns the active definitions listening to event, in dispatch order.
func (s *Set) Subscribed(event string) []core.HandlerDefinition {
	var out []core.HandlerDefinition
	for _, h := range s.handlers {
		if h.IsActive() && h.SubscribedTo(event) {
			out = append(out, h)
		}
	}
	return out
}
