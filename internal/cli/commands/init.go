package commands

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/AlecAivazis/survey/v2"
	"github.com/conduit-lang/excellent/internal/cache"
	"github.com/conduit-lang/excellent/internal/cli/config"
	"github.com/conduit-lang/excellent/internal/cli/ui"
	"github.com/conduit-lang/excellent/internal/vocabulary"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const noDatabase = "none"

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	var (
		output string
		yes    bool
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an excellent.yml",
		Long: `Create a configuration file by answering a few questions: the expression
prefix, the allowed top levels, an optional vocabulary database, and whether
the HTTP API requires tokens.

Examples:
  excellent init
  excellent init --yes
  excellent init --output config/excellent.yml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", output)
				}
			}

			cfg := config.Default()
			if !yes {
				if err := askConfig(cfg); err != nil {
					return err
				}
			}

			if err := config.Save(output, cfg, force); err != nil {
				return err
			}

			ui.WriteSuccess(cmd.OutOrStdout(), "Created "+output, noColor)
			if cfg.Vocabulary.Driver != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Next: excellent vocab migrate")
			}
			if cfg.Server.JWTSecret != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Issue API tokens with: excellent token <name>")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", config.FileName+".yml", "File to write")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Write the defaults without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

// askConfig prompts for the settings most projects change
func askConfig(cfg *config.Config) error {
	prefixPrompt := &survey.Input{
		Message: "Expression prefix:",
		Default: cfg.Prefix,
	}
	singleRune := func(ans interface{}) error {
		if s, _ := ans.(string); utf8.RuneCountInString(s) != 1 {
			return errors.New("the prefix must be a single character")
		}
		return nil
	}
	if err := survey.AskOne(prefixPrompt, &cfg.Prefix, survey.WithValidator(singleRune)); err != nil {
		return err
	}

	topLevelPrompt := &survey.MultiSelect{
		Message: "Top levels templates may reference:",
		Options: cfg.TopLevels,
		Default: cfg.TopLevels,
	}
	var topLevels []string
	if err := survey.AskOne(topLevelPrompt, &topLevels, survey.WithValidator(survey.MinItems(1))); err != nil {
		return err
	}
	cfg.TopLevels = topLevels

	driverPrompt := &survey.Select{
		Message: "Vocabulary database:",
		Options: []string{noDatabase, vocabulary.DriverSQLite, vocabulary.DriverPostgres, vocabulary.DriverPgx},
		Default: noDatabase,
	}
	var driver string
	if err := survey.AskOne(driverPrompt, &driver); err != nil {
		return err
	}

	if driver != noDatabase {
		cfg.Vocabulary.Driver = driver

		dsnPrompt := &survey.Input{Message: "Data source name:"}
		if driver == vocabulary.DriverSQLite {
			dsnPrompt.Default = "vocabulary.db"
		}
		if err := survey.AskOne(dsnPrompt, &cfg.Vocabulary.DSN, survey.WithValidator(survey.Required)); err != nil {
			return err
		}

		cachePrompt := &survey.Select{
			Message: "Cache database lookups in:",
			Options: []string{cache.BackendNone, cache.BackendMemory, cache.BackendRedis},
			Default: cache.BackendMemory,
		}
		if err := survey.AskOne(cachePrompt, &cfg.Cache.Backend); err != nil {
			return err
		}
	}

	var requireTokens bool
	authPrompt := &survey.Confirm{
		Message: "Require bearer tokens for the HTTP API?",
		Default: false,
	}
	if err := survey.AskOne(authPrompt, &requireTokens); err != nil {
		return err
	}
	if requireTokens {
		cfg.Server.JWTSecret = uuid.NewString()
	}

	return nil
}
