package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/toki/internal/api"
	"github.com/darmiel/toki/internal/config"
	"github.com/darmiel/toki/internal/logging"
	"github.com/darmiel/toki/internal/tasks"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Toki server",
	Long: `Starts the HTTP server. Events are posted to /v1/events/{event} and dispatched to the
configured handlers. Send SIGHUP (or 'toki tasks trigger reload-handlers') to reload the handler
definitions from the config file; reload.interval in the config reloads them periodically.`,
	Example: `  toki serve -f toki.yaml --addr :8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		rt, err := f.BuildRuntime(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer func() {
			if err := rt.Close(); err != nil {
				log.Warn().Err(err).Msg("closing auditor")
			}
		}()
		log.Info().
			Int("handlers", rt.Manager.Handlers().Len()).
			Int("realms", len(rt.Config.Realms)).
			Msg("Initialized handlers")

		every, _ := rt.Config.Reload.Every() // validated on load
		taskManager := tasks.NewManager()
		defer taskManager.Close()
		taskManager.Register(ReloadTaskName, every, func(ctx context.Context, logger logging.InternalLogger) error {
			return reloadHandlers(ctx, rt, logger)
		})
		if every > 0 {
			log.Info().Msgf("Reloading handlers every %s", every)
		}

		srv := api.NewServer(rt.Manager, rt.Store, rt.Auditor, rt.Metrics, api.WithTasks(taskManager))
		if rt.Config.Admin.SigningKey == "" {
			log.Warn().Msg("No admin signing key configured, admin routes are disabled")
		}

		server := &http.Server{
			Addr:              addr,
			Handler:           srv.Routes([]byte(rt.Config.Admin.SigningKey)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
		for s := range sig {
			if s != syscall.SIGHUP {
				break
			}
			if err := taskManager.Trigger(ReloadTaskName); err != nil {
				log.Error().Err(err).Msg("Could not trigger reload")
			}
		}
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

// ReloadTaskName is the background task re-reading the handler definitions.
const ReloadTaskName = "reload-handlers"

// reloadHandlers re-reads the handler definitions. Tokens and realms of the running store are kept.
// On error the current handlers stay in place.
func reloadHandlers(ctx context.Context, rt *Runtime, logger logging.InternalLogger) error {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	handlers, err := validateHandlers(ctx, cfg.Handlers, rt.Store)
	if err != nil {
		return err
	}
	before := rt.Manager.Handlers().Len()
	rt.Manager.Update(handlers)
	logger.Info("reloaded handlers (%d -> %d)", before, len(handlers))
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f.bindConfigFlag(serveCmd.Flags())
	serveCmd.Flags().String("addr", ":8080", "address to listen on")
}
