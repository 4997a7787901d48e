package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/darmiel/toki/internal/core"
)

// call is one recorded invocation of the fake token library.
type call struct {
	Op     string
	Serial string
	Args   []any
}

type fakeLibrary struct {
	mu      sync.Mutex
	calls   []call
	err     error
	failOn  string
	counter int
}

func (f *fakeLibrary) record(op, serial string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Op: op, Serial: serial, Args: args})
	if f.err != nil && (f.failOn == "" || f.failOn == op) {
		return f.err
	}
	return nil
}

func (f *fakeLibrary) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeLibrary) SetRealms(_ context.Context, serial string, realms []string, add bool) error {
	return f.record("SetRealms", serial, realms, add)
}

func (f *fakeLibrary) RemoveToken(_ context.Context, serial string) error {
	return f.record("RemoveToken", serial)
}

func (f *fakeLibrary) EnableToken(_ context.Context, serial string, enable bool) error {
	return f.record("EnableToken", serial, enable)
}

func (f *fakeLibrary) UnassignToken(_ context.Context, serial string) error {
	return f.record("UnassignToken", serial)
}

func (f *fakeLibrary) InitToken(_ context.Context, spec core.TokenSpec, owner *core.Owner) (*core.Token, error) {
	if err := f.record("InitToken", "", spec, owner); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.counter++
	serial := fmt.Sprintf("%s%04d", spec.Type, f.counter)
	f.mu.Unlock()
	return &core.Token{Serial: serial, Type: spec.Type, Owner: owner}, nil
}

func (f *fakeLibrary) SetDescription(_ context.Context, serial, description string) error {
	return f.record("SetDescription", serial, description)
}

func (f *fakeLibrary) SetCountWindow(_ context.Context, serial string, window int) error {
	return f.record("SetCountWindow", serial, window)
}

func (f *fakeLibrary) AddTokenInfo(_ context.Context, serial, key, value string) error {
	return f.record("AddTokenInfo", serial, key, value)
}

func (f *fakeLibrary) SetValidityPeriodStart(_ context.Context, serial, start string) error {
	return f.record("SetValidityPeriodStart", serial, start)
}

func (f *fakeLibrary) SetValidityPeriodEnd(_ context.Context, serial, end string) error {
	return f.record("SetValidityPeriodEnd", serial, end)
}

type fakeOwners struct {
	owner *core.Owner
	err   error
	calls int
}

func (f *fakeOwners) ResolveOwner(context.Context, core.EventContext) (*core.Owner, error) {
	f.calls++
	return f.owner, f.err
}
