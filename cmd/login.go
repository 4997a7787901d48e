package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/toki/internal/api/middleware"
	"github.com/darmiel/toki/internal/cliconfig"
)

var (
	loginSubject string
	loginTTL     time.Duration
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Create an admin session for a Toki server",
	Long: `Signs an admin session token with the signing key from the server's config file (admin.signing_key).
The session token is saved locally to allow future authenticated requests (like audit logs).`,
	Example: `  toki login -f toki.yaml --server http://localhost:8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server := viper.GetString(TokiAddrKey)
		if server == "" {
			return fmt.Errorf("server address not configured, provide via --server or env")
		}
		u, err := url.Parse(server)
		if err != nil {
			return fmt.Errorf("parsing server URL: %w", err)
		}

		serverCfg, err := f.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if serverCfg.Admin.SigningKey == "" {
			return fmt.Errorf("admin.signing_key is not set, the server does not expose admin routes")
		}

		claims := jwt.MapClaims{}
		var expiresAt time.Time
		if loginTTL > 0 {
			expiresAt = time.Now().Add(loginTTL)
			claims["exp"] = jwt.NewNumericDate(expiresAt)
		}
		token, err := middleware.SignAdminToken([]byte(serverCfg.Admin.SigningKey), loginSubject, claims)
		if err != nil {
			return fmt.Errorf("signing session token: %w", err)
		}

		cfg, err := cliconfig.Load()
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading cli config: %w", err)
			}
			cfg = &cliconfig.CLIConfig{}
		}
		cfg.SetCredential(u.Host, token, expiresAt)
		if err := cliconfig.Save(cfg); err != nil {
			return logError(err, "", "could not save credentials")
		}

		log.Info().Msgf("%s saved credentials for %s", greenCheck, bold(u.Host))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	f.bindConfigFlag(loginCmd.Flags())
	loginCmd.Flags().StringVar(&loginSubject, "subject", "toki-cli", "Subject of the session token")
	loginCmd.Flags().DurationVar(&loginTTL, "ttl", 12*time.Hour, "Lifetime of the session token (0 = no expiry)")
}
