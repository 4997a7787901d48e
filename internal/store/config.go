package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/darmiel/toki/internal/config"
	"github.com/darmiel/toki/internal/core"
)

const TypeMemory = "memory"

// MemoryConfig holds the settings of the in-memory token library.
type MemoryConfig struct {
	// TokenTypes that can be enrolled. Defaults to DefaultTokenTypes.
	TokenTypes []string `mapstructure:"token_types"`

	// DefaultCountWindow is the count window of newly enrolled tokens.
	DefaultCountWindow int `mapstructure:"default_count_window"`

	// Tokens are created on startup.
	Tokens []SeedToken `mapstructure:"tokens"`
}

// SeedToken is a token created from configuration.
type SeedToken struct {
	Serial      string            `mapstructure:"serial"`
	Type        string            `mapstructure:"type"`
	Description string            `mapstructure:"description"`
	Owner       *core.Owner       `mapstructure:"owner"`
	Realms      []string          `mapstructure:"realms"`
	Disabled    bool              `mapstructure:"disabled"`
	Info        map[string]string `mapstructure:"info"`
}

// NewFromConfig builds the token library described by cfg. realms are the realms known
// to the service.
func NewFromConfig(cfg config.TokenStoreConfig, realms []string) (*MemoryStore, error) {
	typ := cfg.Type
	if typ == "" {
		typ = TypeMemory
	}
	if typ != TypeMemory {
		return nil, fmt.Errorf("unknown token store type %q", cfg.Type)
	}

	var conf MemoryConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &conf,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder for token store: %w", err)
	}
	if err := decoder.Decode(cfg.Config); err != nil {
		return nil, fmt.Errorf("decoding token store config: %w", err)
	}

	s := NewMemoryStore(realms, conf.TokenTypes)
	if conf.DefaultCountWindow > 0 {
		s.countWindow = conf.DefaultCountWindow
	}

	for i, seed := range conf.Tokens {
		if err := s.seed(seed); err != nil {
			return nil, fmt.Errorf("seeding token #%d: %w", i, err)
		}
	}
	return s, nil
}

func (s *MemoryStore) seed(seed SeedToken) error {
	ctx := context.Background()

	tok, err := s.InitToken(ctx, core.TokenSpec{Type: seed.Type, GenerateKey: true}, seed.Owner)
	if err != nil {
		return err
	}

	s.mu.Lock()
	rec := s.tokens[tok.Serial]
	if seed.Serial != "" {
		if _, exists := s.tokens[seed.Serial]; exists {
			s.mu.Unlock()
			return fmt.Errorf("%w: duplicate serial %s", ErrInvalidArgument, seed.Serial)
		}
		delete(s.tokens, tok.Serial)
		rec.token.Serial = seed.Serial
		s.tokens[seed.Serial] = rec
	}
	rec.token.Description = seed.Description
	rec.token.Active = !seed.Disabled
	for k, v := range seed.Info {
		rec.token.Info[k] = v
	}
	serial := rec.token.Serial
	s.mu.Unlock()

	if len(seed.Realms) > 0 {
		lowered := make([]string, len(seed.Realms))
		for i, r := range seed.Realms {
			lowered[i] = strings.ToLower(r)
		}
		return s.SetRealms(ctx, serial, lowered, true)
	}
	return nil
}
