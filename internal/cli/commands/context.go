package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/conduit-lang/excellent/internal/cli/ui"
	"github.com/conduit-lang/excellent/internal/tooling"
	"github.com/spf13/cobra"
)

type contextOutput struct {
	ExpressionContext   *string                  `json:"expression_context"`
	AutoCompleteContext *string                  `json:"autocomplete_context"`
	Completions         []tooling.CompletionItem `json:"completions,omitempty"`
}

// NewContextCommand creates the context command
func NewContextCommand() *cobra.Command {
	var (
		asJSON   bool
		complete bool
	)

	cmd := &cobra.Command{
		Use:   "context <text>",
		Short: "Show what is being typed at the end of some text",
		Long: `Show the expression context and the autocomplete context at the end of
the text, as an editor sees them when the cursor is there.

Arguments are joined with spaces. Quote the text so the shell leaves @ and
parentheses alone.

Examples:
  excellent context 'Hi @(contact.na'
  excellent context --complete 'Hi @contact.'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			text := strings.Join(args, " ")
			l := env.api.Lexer()

			fragment, hasFragment := l.ExpressionContext(text)
			path, hasPath := l.AutoCompleteContext(text)

			out := contextOutput{
				ExpressionContext:   optional(fragment, hasFragment),
				AutoCompleteContext: optional(path, hasPath),
			}

			if complete {
				_, items, err := env.api.Complete(cmd.Context(), text)
				if err != nil {
					return err
				}
				out.Completions = items
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), noColor)
			kv.AddRow("Expression context", orNone(fragment, hasFragment))
			kv.AddRow("Autocomplete context", orNone(path, hasPath))
			kv.Render()

			if complete && len(out.Completions) > 0 {
				table := ui.NewTable(cmd.OutOrStdout(),
					[]string{"Completion", "Kind", "Detail"},
					&ui.TableOptions{NoColor: noColor})
				for _, item := range out.Completions {
					table.AddRow(item.Label, item.Kind.String(), item.Detail)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				table.Render()
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&complete, "complete", false, "Also list the completion items")

	return cmd
}
