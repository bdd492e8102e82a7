package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/conduit-lang/excellent/internal/cli/config"
	"github.com/conduit-lang/excellent/internal/web/auth"
	"github.com/spf13/cobra"
)

// defaultTokenTTL is the lifetime of tokens issued by the token command
const defaultTokenTTL = 30 * 24 * time.Hour

// NewTokenCommand creates the token command
func NewTokenCommand() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue a bearer token for the HTTP API",
		Long: `Issue a token signed with server.jwt_secret. The subject names the client,
such as an editor integration, and shows up in the server logs.

Examples:
  excellent token vscode
  excellent token ci --ttl 24h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return configError{err}
			}
			if cfg.Server.JWTSecret == "" {
				return configError{errors.New("server.jwt_secret is not set, so the API accepts requests without tokens")}
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive, got %s", ttl)
			}

			token, err := auth.NewTokenService(cfg.Server.JWTSecret, ttl).GenerateToken(args[0])
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", defaultTokenTTL, "How long the token stays valid")

	return cmd
}
