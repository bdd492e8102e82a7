// Package commands implements the excellent command line
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/conduit-lang/excellent/internal/cli/config"
	"github.com/conduit-lang/excellent/internal/cli/ui"
	"github.com/conduit-lang/excellent/internal/lsp"
	"github.com/conduit-lang/excellent/internal/tooling"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// Global flags
var (
	configPath string
	noColor    bool
)

// ErrProblemsFound is returned by check when a file has warnings or errors. The
// problems have already been printed.
var ErrProblemsFound = errors.New("problems found")

// configError marks errors in the configuration so they're reported with
// configuration help
type configError struct {
	err error
}

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "excellent",
		Short: "Scanner and editor tooling for @ expressions in message templates",
		Long: color.CyanString(`Excellent - expression tooling for message templates

Finds @ expressions such as @contact.name and @(SUM(1, 2)) in text,
reports what is being typed for autocompletion, checks templates for
unterminated expressions and misspelled names, and serves the same
features to editors over LSP and HTTP.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./excellent.yml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewScanCommand())
	rootCmd.AddCommand(NewContextCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewRenderCommand())
	rootCmd.AddCommand(NewLSPCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewTokenCommand())
	rootCmd.AddCommand(NewVocabCommand())
	rootCmd.AddCommand(NewInitCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the excellent version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), noColor)
			kv.AddRow("Excellent version", Version)
			kv.AddRow("Git commit", GitCommit)
			kv.AddRow("Build date", BuildDate)
			kv.AddRow("Go version", goVer)
			kv.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lsp.Version = Version

	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	if err == nil || errors.Is(err, ErrProblemsFound) {
		return err
	}

	var cfgErr configError
	if errors.As(err, &cfgErr) {
		fmt.Fprint(rootCmd.ErrOrStderr(), ui.ConfigError(cfgErr.Error(), noColor))
	} else {
		fmt.Fprint(rootCmd.ErrOrStderr(), ui.CommandError(err, noColor))
	}
	return err
}

// environment holds the configuration and what's built from it
type environment struct {
	config *config.Config
	logger *zap.Logger
	api    *tooling.API
	closer func() error
}

// loadEnvironment reads the configuration and builds the logger, lexer,
// vocabulary and tooling API
func loadEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, configError{err}
	}

	logger, err := cfg.Logger()
	if err != nil {
		return nil, configError{err}
	}

	l, err := cfg.Lexer()
	if err != nil {
		return nil, configError{err}
	}

	vocab, closeVocab, err := cfg.Vocabulary(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}

	if cfg.File != "" {
		logger.Debug("loaded configuration", zap.String("file", cfg.File))
	}

	return &environment{
		config: cfg,
		logger: logger,
		api: tooling.NewAPIWithConfig(tooling.Config{
			Lexer:      l,
			Vocabulary: vocab,
			Logger:     logger,
		}),
		closer: closeVocab,
	}, nil
}

// Close releases the vocabulary backends and flushes the logger
func (e *environment) Close() error {
	err := e.closer()
	// stderr can't be synced on every platform
	_ = e.logger.Sync()
	return err
}

// readInput returns the display name and content of the file named by args, or
// of stdin when there is no argument or it is "-"
func readInput(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return "-", string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return args[0], string(data), nil
}

// orNone renders an optional value for people
func orNone(value string, ok bool) string {
	if !ok {
		return "(none)"
	}
	return value
}

// optional converts an optional value to a JSON-friendly pointer
func optional(value string, ok bool) *string {
	if !ok {
		return nil
	}
	return &value
}

// oneLine keeps table cells on one line
func oneLine(s string) string {
	return strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\t", `\t`).Replace(s)
}
