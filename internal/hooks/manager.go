// Package hooks hosts the configured event handlers and runs them when an event is triggered.
package hooks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/expr-lang/expr"

	"github.com/darmiel/toki/internal/core"
	"github.com/darmiel/toki/internal/dispatch"
	"github.com/darmiel/toki/internal/logging"
	"github.com/darmiel/toki/internal/metrics"
	"github.com/darmiel/toki/internal/validation"
)

// OutcomeFailed marks a dispatch that returned an error.
const OutcomeFailed = "failed"

// Event is one occurrence of an event, as seen by the handlers.
type Event struct {
	// CorrelationID ties audit entries to the request that caused the event.
	CorrelationID string

	Request  map[string]any
	Response map[string]any
	Audit    map[string]any
}

// Outcome describes what one handler did for an event.
type Outcome struct {
	Handler string `json:"handler"`
	Action  string `json:"action"`
	Outcome string `json:"outcome"`
	Serial  string `json:"serial,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Dispatcher runs a single action.
type Dispatcher interface {
	Dispatch(ctx context.Context, action string, ec core.EventContext) (dispatch.Result, error)
}

type Manager struct {
	current atomic.Pointer[Set]
	mu      sync.Mutex

	dispatcher Dispatcher
	auditor    core.Auditor
	metrics    *metrics.Metrics
	now        func() time.Time
}

type Option func(*Manager)

func WithAuditor(a core.Auditor) Option {
	return func(m *Manager) {
		m.auditor = a
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager serving the given (validated) handler definitions.
func NewManager(d Dispatcher, initial []core.HandlerDefinition, opts ...Option) *Manager {
	m := &Manager{
		dispatcher: d,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.store(NewSet(initial))
	return m
}

// Handlers returns the currently active handler set.
func (m *Manager) Handlers() *Set {
	return m.current.Load()
}

// Update replaces the handler definitions. Triggers already running finish with the old set.
func (m *Manager) Update(handlers []core.HandlerDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store(NewSet(handlers))
}

func (m *Manager) store(set *Set) {
	m.current.Store(set)
	if m.metrics != nil {
		m.metrics.SetHandlersLoaded(set.Len())
	}
}

// Trigger runs every active handler subscribed to event whose condition holds, in order.
// It stops at the first handler whose dispatch fails and returns the error together with the
// outcomes collected so far (including the failed one).
func (m *Manager) Trigger(ctx context.Context, event string, ev Event) ([]Outcome, error) {
	set := m.current.Load()
	if m.metrics != nil {
		m.metrics.RecordEvent(event)
	}

	env := map[string]any{
		"event":    event,
		"request":  orEmpty(ev.Request),
		"response": orEmpty(ev.Response),
		"audit":    orEmpty(ev.Audit),
	}

	var outcomes []Outcome
	for _, h := range set.Subscribed(event) {
		logger := logging.FromContext(ctx).With().
			Str("event", event).
			Str("handler", h.Name).
			Str("action", h.Action).
			Logger()

		ok, err := conditionHolds(h, env)
		if err != nil {
			logger.Warn().Err(err).Msg("handler condition could not be evaluated")
			if m.metrics != nil {
				m.metrics.IncConditionErrors(h.Name)
			}
			continue
		}
		if !ok {
			logger.Debug().Msg("handler condition not met")
			continue
		}

		ec := core.EventContext{
			Request:  ev.Request,
			Response: ev.Response,
			Audit:    ev.Audit,
			Options:  h.Options,
		}

		start := m.now()
		res, err := m.dispatcher.Dispatch(logger.WithContext(ctx), h.Action, ec)
		took := m.now().Sub(start)

		outcome := Outcome{
			Handler: h.Name,
			Action:  h.Action,
			Outcome: string(res.Outcome),
			Serial:  res.Serial,
		}
		if err != nil {
			outcome.Outcome = OutcomeFailed
			outcome.Error = err.Error()
		}
		outcomes = append(outcomes, outcome)

		m.audit(ctx, event, ev, outcome, start)
		if m.metrics != nil {
			m.metrics.RecordDispatch(h.Action, outcome.Outcome, took)
		}

		if err != nil {
			logger.Error().Err(err).Msg("handler failed")
			return outcomes, fmt.Errorf("handler '%s' (%s): %w", h.Name, h.Action, err)
		}
		logger.Debug().
			Str("outcome", outcome.Outcome).
			Str("serial", outcome.Serial).
			Dur("duration", took).
			Msg("handler dispatched")
	}
	return outcomes, nil
}

func (m *Manager) audit(ctx context.Context, event string, ev Event, o Outcome, at time.Time) {
	if m.auditor == nil {
		return
	}
	entry := core.AuditEntry{
		ID:      ev.CorrelationID,
		Time:    at,
		Event:   event,
		Handler: o.Handler,
		Action:  o.Action,
		Serial:  o.Serial,
		Owner:   requestOwner(ev.Request),
		Outcome: o.Outcome,
		Success: o.Error == "",
		Error:   o.Error,
	}
	if err := m.auditor.Log(entry); err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().Err(err).Msg("failed to write audit entry")
	}
}

// conditionHolds evaluates the handler's trigger condition. No condition always holds.
func conditionHolds(h core.HandlerDefinition, env map[string]any) (bool, error) {
	program := h.CompiledCondition
	if program == nil {
		if h.Condition == "" {
			return true, nil
		}
		var err error
		program, err = expr.Compile(h.Condition, expr.Env(validation.ConditionEnv()), expr.AsBool())
		if err != nil {
			return false, fmt.Errorf("compiling condition: %w", err)
		}
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %T, expected bool", out)
	}
	return b, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func requestOwner(request map[string]any) string {
	user, _ := request["user"].(string)
	if user == "" {
		return ""
	}
	realm, _ := request["realm"].(string)
	return core.Owner{Login: user, Realm: realm}.String()
}
