package actions

import (
	"context"
	"fmt"
	"sort"

	"github.com/darmiel/toki/internal/core"
)

// Catalog maps every action identifier to its options, keyed by option name.
type Catalog map[string]map[string]core.ActionDescriptor

// Action returns the options of the given action (case-insensitive).
func (c Catalog) Action(name string) (map[string]core.ActionDescriptor, bool) {
	k, ok := Lookup(name)
	if !ok {
		return nil, false
	}
	opts, ok := c[k.String()]
	return opts, ok
}

// List describes all supported actions and their options.
//
// The allowed values of the "realm" and "tokentype" options are read from the given listers
// on every call, so the result always reflects the realms and token types known right now.
// List keeps no state and may be called concurrently.
func List(ctx context.Context, realms core.RealmLister, tokenTypes core.TokenTypeLister) (Catalog, error) {
	realmList, err := realms.ListRealms(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing realms: %w", err)
	}
	if realmList == nil {
		realmList = []string{}
	}
	typeList, err := tokenTypes.ListTokenTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing token types: %w", err)
	}
	if typeList == nil {
		typeList = []string{}
	}

	return Catalog{
		NameSetTokenRealm: options(
			core.ActionDescriptor{
				Name:        OptionRealm,
				Type:        core.TypeString,
				Required:    true,
				Description: "set a new realm of the token",
				Values:      clone(realmList),
			},
			core.ActionDescriptor{
				Name: OptionOnlyRealm,
				Type: core.TypeBool,
				Description: "The new realm will be the only realm of the token. " +
					"I.e. all other realms will be removed from this token. " +
					"Otherwise the realm will be added to the token.",
			},
		),
		NameDelete:   options(),
		NameUnassign: options(),
		NameDisable:  options(),
		NameEnable:   options(),
		NameEnroll: options(
			core.ActionDescriptor{
				Name:        OptionTokenType,
				Type:        core.TypeString,
				Required:    true,
				Description: "Token type to create",
				Values:      clone(typeList),
			},
			core.ActionDescriptor{
				Name:        OptionUser,
				Type:        core.TypeBool,
				Description: "Assign token to user in request or tokenowner.",
			},
			core.ActionDescriptor{
				Name:        OptionRealm,
				Type:        core.TypeString,
				Description: "Set the realm of the newly created token.",
				Values:      clone(realmList),
			},
		),
		NameSetDescription: options(
			core.ActionDescriptor{
				Name:        OptionDescription,
				Type:        core.TypeString,
				Description: "The new description of the token.",
			},
		),
		NameSetValidity: options(
			core.ActionDescriptor{
				Name: OptionValidFrom,
				Type: core.TypeString,
				Description: "The token will be valid starting at the given date. " +
					"Can be a fixed date or an offset like +10m, +24h, +7d.",
			},
			core.ActionDescriptor{
				Name: OptionValidTill,
				Type: core.TypeString,
				Description: "The token will be valid until the given date. " +
					"Can be a fixed date or an offset like +10m, +24h, +7d.",
			},
		),
		NameSetCountWindow: options(
			// integer, but carried as a string
			core.ActionDescriptor{
				Name:        OptionCountWindow,
				Type:        core.TypeString,
				Required:    true,
				Description: "Set the new count window of the token.",
			},
		),
		NameSetTokenInfo: options(
			core.ActionDescriptor{
				Name:        OptionKey,
				Type:        core.TypeString,
				Required:    true,
				Description: "Set this tokeninfo key.",
			},
			core.ActionDescriptor{
				Name:        OptionValue,
				Type:        core.TypeString,
				Description: "Set the above key to this value.",
			},
		),
	}, nil
}

func options(descriptors ...core.ActionDescriptor) map[string]core.ActionDescriptor {
	m := make(map[string]core.ActionDescriptor, len(descriptors))
	for _, d := range descriptors {
		m[d.Name] = d
	}
	return m
}

// clone keeps descriptors of different actions from sharing one backing array
func clone(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// OptionNames returns the option names of one action, sorted.
func OptionNames(opts map[string]core.ActionDescriptor) []string {
	names := make([]string, 0, len(opts))
	for name := range opts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
