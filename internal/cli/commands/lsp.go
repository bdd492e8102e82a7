package commands

import (
	"github.com/conduit-lang/excellent/internal/lsp"
	"github.com/spf13/cobra"
)

// NewLSPCommand creates the lsp command
func NewLSPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the language server",
		Long: `Start the Language Server Protocol server on stdin and stdout.

Editors launch this command to get expression completion, diagnostics, hover
and symbols in template files. Logs go to stderr so they don't corrupt the
protocol stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			return lsp.NewServer(env.api, env.logger).Run(cmd.Context())
		},
	}
}
