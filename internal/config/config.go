package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/darmiel/toki/internal/core"
)

type Config struct {
	// Realms known to the token library.
	Realms []string `yaml:"realms"`

	TokenStore TokenStoreConfig         `yaml:"token_store"`
	Handlers   []core.HandlerDefinition `yaml:"handlers"`
	Audit      AuditConfig              `yaml:"audit"`
	Admin      AdminConfig              `yaml:"admin"`
	Reload     ReloadConfig             `yaml:"reload"`
}

// TokenStoreConfig selects and configures the token library.
type TokenStoreConfig struct {
	Type   string         `yaml:"type"` // e.g., "memory"
	Config map[string]any `yaml:"config"`
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Type    string `yaml:"type"` // e.g., "file", "memory"
}

// AdminConfig holds configuration for the admin endpoints.
type AdminConfig struct {
	// SigningKey is the HMAC key admin bearer tokens are signed with.
	// Admin endpoints are disabled when empty.
	SigningKey string `yaml:"signing_key"`
}

// ReloadConfig controls the periodic reload of the handler definitions.
type ReloadConfig struct {
	// Interval is a duration like "5m". Empty disables periodic reloads.
	Interval string `yaml:"interval"`
}

// Every returns the parsed reload interval, zero if unset.
func (r ReloadConfig) Every() (time.Duration, error) {
	if r.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Interval)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
// Handler definitions are only checked structurally here, validation against the
// action catalog happens once the token library is available.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	seenRealms := make(map[string]struct{})
	for idx, r := range c.Realms {
		name := strings.ToLower(strings.TrimSpace(r))
		if name == "" {
			return fmt.Errorf("realm at index %d has empty name", idx)
		}
		if _, exists := seenRealms[name]; exists {
			return fmt.Errorf("realm '%s' is not unique", name)
		}
		seenRealms[name] = struct{}{}
	}

	if c.Audit.Enabled {
		switch c.Audit.Type {
		case "", "memory":
		case "file":
			if c.Audit.Path == "" {
				return fmt.Errorf("audit type 'file' requires a path")
			}
		default:
			return fmt.Errorf("unknown audit type '%s'", c.Audit.Type)
		}
	}

	if _, err := c.Reload.Every(); err != nil {
		return fmt.Errorf("invalid reload interval: %w", err)
	}

	for idx, h := range c.Handlers {
		if h.Name == "" {
			return fmt.Errorf("handler at index %d has empty name", idx)
		}
	}

	return nil
}
