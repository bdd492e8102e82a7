package commands

import (
	"context"
	"fmt"

	"github.com/conduit-lang/excellent/internal/cache"
	"github.com/conduit-lang/excellent/internal/cli/config"
	"github.com/conduit-lang/excellent/internal/cli/ui"
	"github.com/conduit-lang/excellent/internal/vocabulary"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewVocabCommand creates the vocab command
func NewVocabCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Manage the vocabulary database",
		Long: `Manage the names autocomplete offers from the database configured by
vocabulary.driver and vocabulary.dsn. Names listed in excellent.yml are
served alongside these and don't need to be added here.`,
	}

	cmd.AddCommand(newVocabMigrateCommand())
	cmd.AddCommand(newVocabAddCommand())
	cmd.AddCommand(newVocabListCommand())

	return cmd
}

func newVocabMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the vocabulary tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(cfg *config.Config, db *vocabulary.SQLStore, _ *zap.Logger) error {
				if err := db.Migrate(cmd.Context()); err != nil {
					return err
				}
				ui.WriteSuccess(cmd.OutOrStdout(), "Vocabulary tables are ready", noColor)
				return nil
			})
		},
	}
}

func newVocabAddCommand() *cobra.Command {
	var function bool

	cmd := &cobra.Command{
		Use:   "add <path> [detail]",
		Short: "Add a context path or function",
		Long: `Add a dotted context path such as contact.fields.district, or with
--function a function name such as WORD_COUNT. The optional detail is shown
next to the name in completion lists.

Examples:
  excellent vocab add contact.fields.district "District from registration"
  excellent vocab add --function WORD_COUNT "WORD_COUNT(text)"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail := ""
			if len(args) == 2 {
				detail = args[1]
			}

			return withDatabase(cmd.Context(), func(cfg *config.Config, db *vocabulary.SQLStore, logger *zap.Logger) error {
				ctx := cmd.Context()

				if function {
					if err := db.AddFunction(ctx, args[0], detail); err != nil {
						return err
					}
				} else if err := db.AddPath(ctx, args[0], detail); err != nil {
					return err
				}

				if err := invalidateCache(ctx, cfg, db, logger); err != nil {
					fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(
						"Added, but the completion cache could not be cleared: "+err.Error(),
						[]string{"Cached names expire after cache.ttl"}, noColor))
				}

				ui.WriteSuccess(cmd.OutOrStdout(), "Added "+args[0], noColor)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&function, "function", false, "Add a function instead of a context path")

	return cmd
}

func newVocabListCommand() *cobra.Command {
	var functions bool

	cmd := &cobra.Command{
		Use:   "list [parent]",
		Short: "List the names below a path",
		Long: `List the database names directly below parent, or the top levels when no
parent is given. --functions lists functions instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(cfg *config.Config, db *vocabulary.SQLStore, _ *zap.Logger) error {
				var (
					entries []vocabulary.Entry
					err     error
				)
				if functions {
					entries, err = db.Functions(cmd.Context())
				} else {
					parent := ""
					if len(args) == 1 {
						parent = args[0]
					}
					entries, err = db.Children(cmd.Context(), parent)
				}
				if err != nil {
					return err
				}

				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No entries found")
					return nil
				}

				table := ui.NewTable(cmd.OutOrStdout(), []string{"Path", "Kind", "Detail"}, &ui.TableOptions{NoColor: noColor})
				for _, e := range entries {
					table.AddRow(e.Path, e.Kind.String(), e.Detail)
				}
				table.Render()
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&functions, "functions", false, "List functions")

	return cmd
}

// withDatabase opens the configured vocabulary database for the duration of fn
func withDatabase(ctx context.Context, fn func(*config.Config, *vocabulary.SQLStore, *zap.Logger) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return configError{err}
	}

	logger, err := cfg.Logger()
	if err != nil {
		return configError{err}
	}
	defer logger.Sync() //nolint:errcheck

	db, err := cfg.OpenDatabase(ctx, logger)
	if err != nil {
		return configError{err}
	}
	defer db.Close()

	return fn(cfg, db, logger)
}

// invalidateCache drops cached lookups so running servers see new names. Only
// redis outlives the process.
func invalidateCache(ctx context.Context, cfg *config.Config, db *vocabulary.SQLStore, logger *zap.Logger) error {
	if cfg.Cache.Backend != cache.BackendRedis {
		return nil
	}

	backend, err := cache.New(cache.Options{
		Backend:   cfg.Cache.Backend,
		RedisAddr: cfg.Cache.RedisAddr,
		TTL:       cfg.Cache.TTL,
	})
	if err != nil || backend == nil {
		return err
	}
	defer backend.Close()

	return vocabulary.NewCachedStore(db, backend, cfg.Cache.TTL, logger).Invalidate(ctx)
}
