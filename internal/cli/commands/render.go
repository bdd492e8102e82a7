package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-lang/excellent/internal/cli/ui"
	"github.com/conduit-lang/excellent/internal/vocabulary"
	"github.com/spf13/cobra"
)

// NewRenderCommand creates the render command
func NewRenderCommand() *cobra.Command {
	var (
		values []string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Substitute values into a template",
		Long: `Replace expressions in a template with values given on the command line.

Each --set path=value provides the value of one context path. Paths match
case-insensitively, so --set contact.name=Bob serves both @contact.name and
@(CONTACT.NAME). Anything other than a plain path is not evaluated.
Expressions without a value are left as written and reported on stderr. "@@"
renders as a single "@".

Examples:
  excellent render welcome.txt --set contact.name=Bob
  echo 'Hi @contact.name' | excellent render --set contact.name=Bob`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lookup, err := parseValues(values)
			if err != nil {
				return err
			}

			env, err := loadEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			_, text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			output, errs := env.api.Lexer().Expand(text, lookup.resolve)
			fmt.Fprint(cmd.OutOrStdout(), output)

			for _, e := range errs {
				fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(e.Error(), nil, noColor))
			}

			if strict && len(errs) > 0 {
				return fmt.Errorf("%d expression(s) could not be rendered", len(errs))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&values, "set", nil, "Value for a context path, as path=value (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when an expression has no value")

	return cmd
}

type valueLookup map[string]string

func parseValues(pairs []string) (valueLookup, error) {
	lookup := make(valueLookup, len(pairs))
	for _, pair := range pairs {
		path, value, ok := strings.Cut(pair, "=")
		path = vocabulary.NormalizePath(path)
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid --set %q, expected path=value", pair)
		}
		lookup[path] = value
	}
	return lookup, nil
}

// resolve looks up an expression body such as "contact.name" or "(contact.name)"
func (v valueLookup) resolve(expression string) (string, error) {
	path := strings.TrimSpace(expression)
	if strings.HasPrefix(path, "(") && strings.HasSuffix(path, ")") {
		path = strings.TrimSpace(path[1 : len(path)-1])
	}

	if !isPath(path) {
		return "", errors.New("only context paths can be rendered")
	}

	value, ok := v[strings.ToLower(path)]
	if !ok {
		return "", fmt.Errorf("no value for %s", strings.ToLower(path))
	}
	return value, nil
}

func isPath(s string) bool {
	if s == "" || s[0] == '.' || s[len(s)-1] == '.' || strings.Contains(s, "..") {
		return false
	}
	for _, ch := range s {
		switch {
		case ch == '.' || ch == '_':
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		default:
			return false
		}
	}
	return true
}
