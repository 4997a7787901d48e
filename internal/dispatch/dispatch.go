// Package dispatch runs the token action selected by a triggered event handler.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/darmiel/toki/internal/actions"
	"github.com/darmiel/toki/internal/core"
	"github.com/darmiel/toki/internal/validity"
)

// DefaultCountWindow is used by "set countwindow" when no count window is configured.
const DefaultCountWindow = 50

// ErrInvalidOption is returned when a configured option value cannot be used.
var ErrInvalidOption = errors.New("invalid option value")

// Reporter receives the dispatcher's diagnostics.
type Reporter interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Outcome describes what a dispatch did.
type Outcome string

const (
	// OutcomeExecuted means the collaborator operation was invoked successfully.
	OutcomeExecuted Outcome = "executed"
	// OutcomeSkipped means the action needed a token, but no serial could be resolved.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeIgnored means the action name is not known.
	OutcomeIgnored Outcome = "ignored"
)

// Result is the outcome of one dispatch.
type Result struct {
	Action  actions.Kind
	Outcome Outcome

	// Serial is the token acted upon, or the newly enrolled token.
	Serial string
}

// actionFunc performs one action and returns the serial it acted on.
type actionFunc func(ctx context.Context, serial string, ec core.EventContext) (string, error)

// Dispatcher maps action names to token library operations.
// It keeps no per-event state and can be shared between goroutines.
type Dispatcher struct {
	tokens   core.TokenLibrary
	owners   core.OwnerResolver
	reporter func(ctx context.Context) Reporter
	now      func() time.Time

	handlers map[actions.Kind]actionFunc
}

type Option func(*Dispatcher)

// WithReporter sets where diagnostics go. By default they are discarded.
func WithReporter(r Reporter) Option {
	return func(d *Dispatcher) {
		d.reporter = func(context.Context) Reporter { return r }
	}
}

// WithContextReporter picks the Reporter per dispatch from the dispatch context,
// e.g. a logger carrying the event and handler of the current trigger.
func WithContextReporter(fn func(ctx context.Context) Reporter) Option {
	return func(d *Dispatcher) {
		d.reporter = fn
	}
}

// WithClock sets the time source relative validity expressions are evaluated against.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// New creates a Dispatcher acting on tokens. owners is consulted by "enroll" when the
// token should be assigned to a user; it may be nil if no user lookup is available.
func New(tokens core.TokenLibrary, owners core.OwnerResolver, opts ...Option) *Dispatcher {
	if owners == nil {
		owners = noOwner{}
	}
	d := &Dispatcher{
		tokens:   tokens,
		owners:   owners,
		reporter: func(context.Context) Reporter { return discard{} },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.handlers = map[actions.Kind]actionFunc{
		actions.SetTokenRealm:  d.setTokenRealm,
		actions.Delete:         d.remove,
		actions.Unassign:       d.unassign,
		actions.Disable:        d.enable(false),
		actions.Enable:         d.enable(true),
		actions.Enroll:         d.enroll,
		actions.SetDescription: d.setDescription,
		actions.SetValidity:    d.setValidity,
		actions.SetCountWindow: d.setCountWindow,
		actions.SetTokenInfo:   d.setTokenInfo,
	}
	return d
}

// Execute runs the named action for the event and reports completion.
//
// It returns true on every path that does not fail: unknown actions are ignored and
// actions whose token cannot be resolved are skipped. Errors of the token library are
// returned unchanged in meaning (wrapped) together with false.
func (d *Dispatcher) Execute(ctx context.Context, action string, ec core.EventContext) (bool, error) {
	if _, err := d.Dispatch(ctx, action, ec); err != nil {
		return false, err
	}
	return true, nil
}

// Dispatch is like Execute but tells what happened.
func (d *Dispatcher) Dispatch(ctx context.Context, action string, ec core.EventContext) (Result, error) {
	kind, ok := actions.Lookup(action)
	if !ok {
		return Result{Action: actions.Unknown, Outcome: OutcomeIgnored}, nil
	}
	result := Result{Action: kind}
	handler := d.handlers[kind]

	var serial string
	if kind.RequiresTarget() {
		if serial, ok = ResolveSerial(ec); !ok {
			d.reporter(ctx).Warn("action %s requires a serial number, but no serial number could be found in the event", kind)
			result.Outcome = OutcomeSkipped
			return result, nil
		}
		d.reporter(ctx).Info("%s for token %s", kind, serial)
	}

	acted, err := handler(ctx, serial, ec)
	result.Serial = acted
	if err != nil {
		return result, err
	}
	result.Outcome = OutcomeExecuted
	return result, nil
}

func (d *Dispatcher) setTokenRealm(ctx context.Context, serial string, ec core.EventContext) (string, error) {
	realm := ec.Options.String(actions.OptionRealm, "")
	add := !ec.Options.Truthy(actions.OptionOnlyRealm)

	d.reporter(ctx).Info("setting realm of token %s to %s", serial, realm)
	if err := d.tokens.SetRealms(ctx, serial, []string{realm}, add); err != nil {
		return serial, fmt.Errorf("setting realm of token %s: %w", serial, err)
	}
	return serial, nil
}

func (d *Dispatcher) remove(ctx context.Context, serial string, _ core.EventContext) (string, error) {
	if err := d.tokens.RemoveToken(ctx, serial); err != nil {
		return serial, fmt.Errorf("removing token %s: %w", serial, err)
	}
	return serial, nil
}

func (d *Dispatcher) unassign(ctx context.Context, serial string, _ core.EventContext) (string, error) {
	if err := d.tokens.UnassignToken(ctx, serial); err != nil {
		return serial, fmt.Errorf("unassigning token %s: %w", serial, err)
	}
	return serial, nil
}

func (d *Dispatcher) enable(enable bool) actionFunc {
	return func(ctx context.Context, serial string, _ core.EventContext) (string, error) {
		if err := d.tokens.EnableToken(ctx, serial, enable); err != nil {
			return serial, fmt.Errorf("setting active=%t on token %s: %w", enable, serial, err)
		}
		return serial, nil
	}
}

func (d *Dispatcher) setDescription(ctx context.Context, serial string, ec core.EventContext) (string, error) {
	description := ec.Options.String(actions.OptionDescription, "")
	if err := d.tokens.SetDescription(ctx, serial, description); err != nil {
		return serial, fmt.Errorf("setting description of token %s: %w", serial, err)
	}
	return serial, nil
}

// setCountWindow falls back to DefaultCountWindow only if no count window is configured;
// a configured value that is not an integer is an error.
func (d *Dispatcher) setCountWindow(ctx context.Context, serial string, ec core.EventContext) (string, error) {
	window := DefaultCountWindow
	if v, ok := ec.Options.Get(actions.OptionCountWindow); ok {
		n, err := v.Int()
		if err != nil {
			return serial, fmt.Errorf("%w '%s': %v", ErrInvalidOption, actions.OptionCountWindow, err)
		}
		window = int(n)
	}
	if err := d.tokens.SetCountWindow(ctx, serial, window); err != nil {
		return serial, fmt.Errorf("setting count window of token %s: %w", serial, err)
	}
	return serial, nil
}

func (d *Dispatcher) setTokenInfo(ctx context.Context, serial string, ec core.EventContext) (string, error) {
	key := ec.Options.String(actions.OptionKey, "")
	value := ec.Options.String(actions.OptionValue, "")
	if err := d.tokens.AddTokenInfo(ctx, serial, key, value); err != nil {
		return serial, fmt.Errorf("setting tokeninfo '%s' of token %s: %w", key, serial, err)
	}
	return serial, nil
}

// setValidity applies each configured bound on its own. Start and end are not checked
// against each other.
func (d *Dispatcher) setValidity(ctx context.Context, serial string, ec core.EventContext) (string, error) {
	now := d.now()

	if expr := ec.Options.String(actions.OptionValidFrom, ""); expr != "" {
		start, err := validity.Resolve(expr, now)
		if err != nil {
			return serial, fmt.Errorf("%w '%s': %w", ErrInvalidOption, actions.OptionValidFrom, err)
		}
		if err := d.tokens.SetValidityPeriodStart(ctx, serial, start); err != nil {
			return serial, fmt.Errorf("setting validity start of token %s: %w", serial, err)
		}
	}

	if expr := ec.Options.String(actions.OptionValidTill, ""); expr != "" {
		end, err := validity.Resolve(expr, now)
		if err != nil {
			return serial, fmt.Errorf("%w '%s': %w", ErrInvalidOption, actions.OptionValidTill, err)
		}
		if err := d.tokens.SetValidityPeriodEnd(ctx, serial, end); err != nil {
			return serial, fmt.Errorf("setting validity end of token %s: %w", serial, err)
		}
	}
	return serial, nil
}

func (d *Dispatcher) enroll(ctx context.Context, _ string, ec core.EventContext) (string, error) {
	d.reporter(ctx).Info("initializing new token")

	var owner *core.Owner
	if ec.Options.Truthy(actions.OptionUser) {
		o, err := d.owners.ResolveOwner(ctx, ec)
		if err != nil {
			return "", fmt.Errorf("resolving token owner: %w", err)
		}
		owner = o
	}

	token, err := d.tokens.InitToken(ctx, core.TokenSpec{
		Type:        ec.Options.String(actions.OptionTokenType, ""),
		GenerateKey: true,
		Realm:       ec.Options.String(actions.OptionRealm, ""),
	}, owner)
	if err != nil {
		return "", fmt.Errorf("enrolling token: %w", err)
	}

	d.reporter(ctx).Info("new token %s enrolled", token.Serial)
	return token.Serial, nil
}

type noOwner struct{}

func (noOwner) ResolveOwner(context.Context, core.EventContext) (*core.Owner, error) {
	return nil, nil
}

type discard struct{}

func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}
