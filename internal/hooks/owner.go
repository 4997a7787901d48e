package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/darmiel/toki/internal/core"
	"github.com/darmiel/toki/internal/dispatch"
	"github.com/darmiel/toki/internal/store"
)

// TokenGetter looks up a single token.
type TokenGetter interface {
	Get(ctx context.Context, serial string) (*core.Token, error)
}

var _ core.OwnerResolver = (*OwnerResolver)(nil)

// OwnerResolver finds the user an event refers to: the user named in the request, otherwise
// the owner of the token the event is about.
type OwnerResolver struct {
	tokens TokenGetter
}

func NewOwnerResolver(tokens TokenGetter) *OwnerResolver {
	return &OwnerResolver{tokens: tokens}
}

func (r *OwnerResolver) ResolveOwner(ctx context.Context, ec core.EventContext) (*core.Owner, error) {
	if user, _ := ec.Request["user"].(string); user != "" {
		realm, _ := ec.Request["realm"].(string)
		return &core.Owner{Login: user, Realm: realm}, nil
	}

	serial, ok := dispatch.ResolveSerial(ec)
	if !ok || r.tokens == nil {
		return nil, nil
	}
	tok, err := r.tokens.Get(ctx, serial)
	if errors.Is(err, store.ErrTokenNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up owner of token %s: %w", serial, err)
	}
	if tok.Owner == nil {
		return nil, nil
	}
	owner := *tok.Owner
	return &owner, nil
}
