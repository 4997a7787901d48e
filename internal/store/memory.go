package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/darmiel/toki/internal/core"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrUnknownRealm     = errors.New("unknown realm")
	ErrUnknownTokenType = errors.New("unknown token type")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// DefaultTokenTypes are the token types offered when none are configured.
var DefaultTokenTypes = []string{"hotp", "totp", "spass", "motp", "sms", "email", "registration"}

const (
	secretBytes              = 20
	defaultCountWindow       = 10
	defaultSerialPrefixChars = 4
)

var (
	_ core.TokenLibrary    = (*MemoryStore)(nil)
	_ core.RealmLister     = (*MemoryStore)(nil)
	_ core.TokenTypeLister = (*MemoryStore)(nil)
)

type record struct {
	token  core.Token
	secret string
}

// MemoryStore is a token library keeping all tokens and realms in memory.
// All operations are serialised by one lock, so concurrent actions on the same token
// never interleave.
type MemoryStore struct {
	mu         sync.RWMutex
	tokens     map[string]*record
	realms     map[string]struct{}
	tokenTypes []string

	countWindow int
	now         func() time.Time
}

func NewMemoryStore(realms, tokenTypes []string) *MemoryStore {
	if len(tokenTypes) == 0 {
		tokenTypes = DefaultTokenTypes
	}
	s := &MemoryStore{
		tokens:      make(map[string]*record),
		realms:      make(map[string]struct{}),
		tokenTypes:  normalize(tokenTypes),
		countWindow: defaultCountWindow,
		now:         time.Now,
	}
	for _, r := range realms {
		s.realms[strings.ToLower(r)] = struct{}{}
	}
	return s
}

func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// ListRealms returns the known realms, sorted.
func (s *MemoryStore) ListRealms(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	realms := make([]string, 0, len(s.realms))
	for r := range s.realms {
		realms = append(realms, r)
	}
	sort.Strings(realms)
	return realms, nil
}

// ListTokenTypes returns the enrollable token types in configuration order.
func (s *MemoryStore) ListTokenTypes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.tokenTypes), nil
}

// AddRealm makes a realm known. Adding an existing realm is a no-op.
func (s *MemoryStore) AddRealm(_ context.Context, realm string) error {
	realm = strings.ToLower(strings.TrimSpace(realm))
	if realm == "" {
		return fmt.Errorf("%w: empty realm name", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.realms[realm] = struct{}{}
	return nil
}

// RemoveRealm forgets a realm and removes it from all tokens.
func (s *MemoryStore) RemoveRealm(_ context.Context, realm string) error {
	realm = strings.ToLower(realm)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.realms[realm]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRealm, realm)
	}
	delete(s.realms, realm)
	for _, rec := range s.tokens {
		rec.token.Realms = slices.DeleteFunc(rec.token.Realms, func(r string) bool { return r == realm })
	}
	return nil
}

// Get returns a copy of the token with the given serial.
func (s *MemoryStore) Get(_ context.Context, serial string) (*core.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tokens[serial]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, serial)
	}
	tok := copyToken(rec.token)
	return &tok, nil
}

// List returns copies of all tokens, ordered by serial.
func (s *MemoryStore) List(_ context.Context) ([]core.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := make([]core.Token, 0, len(s.tokens))
	for _, rec := range s.tokens {
		tokens = append(tokens, copyToken(rec.token))
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].Serial < tokens[j].Serial
	})
	return tokens, nil
}

func (s *MemoryStore) InitToken(_ context.Context, spec core.TokenSpec, owner *core.Owner) (*core.Token, error) {
	tokenType := strings.ToLower(strings.TrimSpace(spec.Type))

	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.tokenTypes, tokenType) {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownTokenType, spec.Type)
	}

	// without an explicit realm, the token goes into the realm of its owner
	realm := strings.ToLower(spec.Realm)
	if realm == "" && owner != nil {
		realm = strings.ToLower(owner.Realm)
	}
	var realms []string
	if realm != "" {
		if _, ok := s.realms[realm]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRealm, realm)
		}
		realms = []string{realm}
	}

	var secret string
	if spec.GenerateKey {
		var err error
		if secret, err = GenerateSecret(secretBytes); err != nil {
			return nil, fmt.Errorf("generating token secret: %w", err)
		}
	}

	tok := core.Token{
		Serial:      newSerial(tokenType),
		Type:        tokenType,
		Active:      true,
		Realms:      realms,
		CountWindow: s.countWindow,
		Info:        map[string]string{},
		CreatedAt:   s.now(),
	}
	if owner != nil {
		o := *owner
		tok.Owner = &o
	}

	s.tokens[tok.Serial] = &record{token: tok, secret: secret}

	out := copyToken(tok)
	return &out, nil
}

func (s *MemoryStore) SetRealms(_ context.Context, serial string, realms []string, add bool) error {
	return s.update(serial, func(tok *core.Token) error {
		normalized := make([]string, 0, len(realms))
		for _, r := range realms {
			r = strings.ToLower(r)
			if _, ok := s.realms[r]; !ok {
				return fmt.Errorf("%w: '%s'", ErrUnknownRealm, r)
			}
			normalized = append(normalized, r)
		}
		if !add {
			tok.Realms = nil
		}
		for _, r := range normalized {
			if !slices.Contains(tok.Realms, r) {
				tok.Realms = append(tok.Realms, r)
			}
		}
		return nil
	})
}

func (s *MemoryStore) RemoveToken(_ context.Context, serial string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[serial]; !ok {
		return fmt.Errorf("%w: %s", ErrTokenNotFound, serial)
	}
	delete(s.tokens, serial)
	return nil
}

func (s *MemoryStore) EnableToken(_ context.Context, serial string, enable bool) error {
	return s.update(serial, func(tok *core.Token) error {
		tok.Active = enable
		return nil
	})
}

// UnassignToken removes the owner. Realm membership is kept.
func (s *MemoryStore) UnassignToken(_ context.Context, serial string) error {
	return s.update(serial, func(tok *core.Token) error {
		tok.Owner = nil
		return nil
	})
}

func (s *MemoryStore) SetDescription(_ context.Context, serial, description string) error {
	return s.update(serial, func(tok *core.Token) error {
		tok.Description = description
		return nil
	})
}

func (s *MemoryStore) SetCountWindow(_ context.Context, serial string, window int) error {
	if window < 0 {
		return fmt.Errorf("%w: negative count window %d", ErrInvalidArgument, window)
	}
	return s.update(serial, func(tok *core.Token) error {
		tok.CountWindow = window
		return nil
	})
}

func (s *MemoryStore) AddTokenInfo(_ context.Context, serial, key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty tokeninfo key", ErrInvalidArgument)
	}
	return s.update(serial, func(tok *core.Token) error {
		if tok.Info == nil {
			tok.Info = make(map[string]string)
		}
		tok.Info[key] = value
		return nil
	})
}

func (s *MemoryStore) SetValidityPeriodStart(_ context.Context, serial, start string) error {
	return s.update(serial, func(tok *core.Token) error {
		tok.ValidityStart = start
		return nil
	})
}

func (s *MemoryStore) SetValidityPeriodEnd(_ context.Context, serial, end string) error {
	return s.update(serial, func(tok *core.Token) error {
		tok.ValidityEnd = end
		return nil
	})
}

// Secret returns the secret of a token; it is never part of core.Token.
func (s *MemoryStore) Secret(_ context.Context, serial string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tokens[serial]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTokenNotFound, serial)
	}
	return rec.secret, nil
}

// update applies fn to the token under the write lock. fn must not call other store methods.
func (s *MemoryStore) update(serial string, fn func(tok *core.Token) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[serial]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTokenNotFound, serial)
	}
	tok := copyToken(rec.token)
	if err := fn(&tok); err != nil {
		return err
	}
	rec.token = tok
	return nil
}

func copyToken(t core.Token) core.Token {
	out := t
	if t.Owner != nil {
		o := *t.Owner
		out.Owner = &o
	}
	out.Realms = slices.Clone(t.Realms)
	if t.Info != nil {
		out.Info = make(map[string]string, len(t.Info))
		for k, v := range t.Info {
			out.Info[k] = v
		}
	}
	return out
}

// newSerial builds a serial from the token type prefix and a globally unique id,
// e.g. HOTP + CT4GKN5VQ4G2C0RQ4E1G.
func newSerial(tokenType string) string {
	prefix := tokenType
	if len(prefix) > defaultSerialPrefixChars {
		prefix = prefix[:defaultSerialPrefixChars]
	}
	return strings.ToUpper(prefix + xid.New().String())
}

func GenerateSecret(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
