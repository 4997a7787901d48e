package core

import "context"

// TokenLibrary is the token storage/operations library the dispatcher acts upon.
// All methods are synchronous; implementations are responsible for per-token concurrency control.
type TokenLibrary interface {
	// SetRealms puts the token into the given realms. With add, the realms are added to
	// the existing ones, otherwise they replace them.
	SetRealms(ctx context.Context, serial string, realms []string, add bool) error

	// RemoveToken deletes the token record permanently.
	RemoveToken(ctx context.Context, serial string) error

	// EnableToken sets the active flag of the token.
	EnableToken(ctx context.Context, serial string, enable bool) error

	// UnassignToken detaches the token from its owner, keeping the token record.
	UnassignToken(ctx context.Context, serial string) error

	// InitToken creates a new token. owner may be nil.
	InitToken(ctx context.Context, spec TokenSpec, owner *Owner) (*Token, error)

	SetDescription(ctx context.Context, serial, description string) error
	SetCountWindow(ctx context.Context, serial string, window int) error

	// AddTokenInfo inserts or replaces one key of the token info.
	AddTokenInfo(ctx context.Context, serial, key, value string) error

	// SetValidityPeriodStart and SetValidityPeriodEnd take timestamps in the storage date format.
	SetValidityPeriodStart(ctx context.Context, serial, start string) error
	SetValidityPeriodEnd(ctx context.Context, serial, end string) error
}

// RealmLister enumerates the realms currently known to the service.
type RealmLister interface {
	ListRealms(ctx context.Context) ([]string, error)
}

// TokenTypeLister enumerates the token types that can be enrolled.
type TokenTypeLister interface {
	ListTokenTypes(ctx context.Context) ([]string, error)
}

// OwnerResolver finds the user an enrolled token should be assigned to.
// A nil owner without error means there is nobody to assign the token to.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, ec EventContext) (*Owner, error)
}
