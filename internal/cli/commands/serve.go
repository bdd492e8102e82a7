package commands

import (
	"context"
	"fmt"

	"github.com/conduit-lang/excellent/internal/cli/ui"
	"github.com/conduit-lang/excellent/internal/web/api"
	"github.com/conduit-lang/excellent/internal/web/auth"
	"github.com/conduit-lang/excellent/internal/web/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serve scanning, context and completion over HTTP, plus live completion
over a websocket at /api/v1/live.

When server.jwt_secret is configured every request except /healthz needs a
bearer token; create one with "excellent token".

Examples:
  excellent serve
  excellent serve --host 0.0.0.0 --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd.Context())
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("host") {
				env.config.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				env.config.Server.Port = port
			}

			var tokens *auth.TokenService
			if secret := env.config.Server.JWTSecret; secret != "" {
				tokens = auth.NewTokenService(secret, defaultTokenTTL)
			}

			router := api.NewRouter(api.Config{
				API:            env.api,
				Logger:         env.logger,
				Tokens:         tokens,
				AllowedOrigins: env.config.Server.CORSOrigins,
			})

			serverConfig := server.DefaultConfig(router)
			serverConfig.Address = env.config.Address()
			serverConfig.Logger = env.logger

			srv, err := server.New(serverConfig)
			if err != nil {
				env.Close()
				return err
			}
			srv.RegisterHook(func(context.Context) error {
				return env.Close()
			})

			if err := srv.Listen(); err != nil {
				env.Close()
				return err
			}

			authMode := "disabled"
			if tokens != nil {
				authMode = "bearer token"
			}
			fmt.Fprint(cmd.ErrOrStderr(), ui.Info(
				fmt.Sprintf("Listening on http://%s (auth: %s), press Ctrl+C to stop", srv.Addr(), authMode), noColor))

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host to bind (overrides server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides server.port)")

	return cmd
}
