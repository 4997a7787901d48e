package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/darmiel/toki/internal/actions"
	"github.com/darmiel/toki/internal/audit"
	"github.com/darmiel/toki/internal/cliconfig"
	"github.com/darmiel/toki/internal/config"
	"github.com/darmiel/toki/internal/core"
	"github.com/darmiel/toki/internal/dispatch"
	"github.com/darmiel/toki/internal/hooks"
	"github.com/darmiel/toki/internal/logging"
	"github.com/darmiel/toki/internal/metrics"
	"github.com/darmiel/toki/internal/store"
	"github.com/darmiel/toki/internal/validation"
	"github.com/darmiel/toki/pkg/client"
)

type Factory struct {
	// RemoteAddr is the address of the Toki server to connect to.
	RemoteAddr string

	// Command-specific flags
	ConfigPath string // contains the "main" Toki configuration => realms, token store and handlers
}

func NewFactory() *Factory {
	return &Factory{}
}

// Runtime holds everything a local Toki instance is made of.
type Runtime struct {
	Config     *config.Config
	Store      *store.MemoryStore
	Auditor    core.Auditor
	Metrics    *metrics.Metrics
	Dispatcher *dispatch.Dispatcher
	Manager    *hooks.Manager
}

// Close releases the auditor.
func (r *Runtime) Close() error {
	return r.Auditor.Close()
}

// GetClient returns an authenticated HTTP client for remote operations.
func (f *Factory) GetClient() (*client.Client, error) {
	server := f.RemoteAddr // prio 1: command-line flag
	if server == "" {
		server = viper.GetString(TokiAddrKey) // prio 2: config/env
	}
	if server == "" {
		return nil, fmt.Errorf("server address not configured (use --server or set TOKI_ADDR)")
	}

	var token string
	if cfg, err := cliconfig.Load(); err == nil {
		if cred, err := cfg.GetCredential(server); err == nil { // token prio 1: saved credential
			token = cred.Token
		} else if errors.Is(err, cliconfig.ErrCredentialExpired) {
			log.Warn().Err(err).Msg("saved session expired, run 'toki login' again")
		} else if !errors.Is(err, cliconfig.ErrCredentialNotFound) {
			log.Warn().Err(err).Msg("could not read saved credentials")
		}
	}

	if envToken := viper.GetString(TokiTokenKey); envToken != "" { // token prio 2: env var
		token = envToken
	}

	return client.New(server, client.WithAuthToken(token)), nil
}

func (f *Factory) LoadConfig() (*config.Config, error) {
	if f.ConfigPath == "" {
		return nil, fmt.Errorf("config file not specified (use --config)")
	}
	return config.Load(f.ConfigPath)
}

// BuildRuntime loads the configuration and wires a local Toki instance.
// reporter receives the dispatcher's diagnostics; nil logs them with the logger of the
// dispatch context, so they carry the event and handler of the trigger.
func (f *Factory) BuildRuntime(ctx context.Context, reporter dispatch.Reporter) (*Runtime, error) {
	cfg, err := f.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewFromConfig(cfg.TokenStore, cfg.Realms)
	if err != nil {
		return nil, fmt.Errorf("building token store: %w", err)
	}

	handlers, err := validateHandlers(ctx, cfg.Handlers, s)
	if err != nil {
		return nil, err
	}

	auditor, err := audit.New(cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("building auditor: %w", err)
	}

	reportTo := dispatch.WithContextReporter(func(ctx context.Context) dispatch.Reporter {
		return logging.NewZLogger(logging.FromContext(ctx))
	})
	if reporter != nil {
		reportTo = dispatch.WithReporter(reporter)
	}
	mt := metrics.New()
	d := dispatch.New(s, hooks.NewOwnerResolver(s), reportTo)
	m := hooks.NewManager(d, handlers, hooks.WithAuditor(auditor), hooks.WithMetrics(mt))

	return &Runtime{
		Config:     cfg,
		Store:      s,
		Auditor:    auditor,
		Metrics:    mt,
		Dispatcher: d,
		Manager:    m,
	}, nil
}

// validateHandlers checks handler definitions against the actions the token library offers right now.
func validateHandlers(ctx context.Context, handlers []core.HandlerDefinition, s *store.MemoryStore) ([]core.HandlerDefinition, error) {
	catalog, err := actions.List(ctx, s, s)
	if err != nil {
		return nil, fmt.Errorf("listing actions: %w", err)
	}
	valid, err := validation.ValidateHandlers(handlers, catalog)
	if err != nil {
		return nil, fmt.Errorf("validating handlers: %w", err)
	}
	return valid, nil
}

func (f *Factory) bindConfigFlag(flags *pflag.FlagSet) {
	flags.StringVarP(&f.ConfigPath, "config", "f", "", "The Toki config file to use")
}
