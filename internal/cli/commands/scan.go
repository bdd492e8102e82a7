package commands

import (
	"encoding/json"
	"strconv"

	"github.com/conduit-lang/excellent/internal/cli/ui"
	"github.com/spf13/cobra"
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan [file|-]",
		Short: "List the expressions in a template",
		Long: `List every expression in a template with its character offsets.

Reads the file named by the argument, or stdin when it is omitted or "-".
Offsets count characters, not bytes; End is exclusive.

Examples:
  excellent scan welcome.txt
  echo 'Hi @contact.name' | excellent scan --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			_, text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			expressions := env.api.Lexer().Scan(text)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(expressions)
			}

			if len(expressions) == 0 {
				ui.WriteSuccess(cmd.OutOrStdout(), "No expressions found", noColor)
				return nil
			}

			table := ui.NewTable(cmd.OutOrStdout(),
				[]string{"Start", "End", "Complete", "Expression"},
				&ui.TableOptions{NoColor: noColor})
			for _, e := range expressions {
				table.AddRow(
					strconv.Itoa(e.Start),
					strconv.Itoa(e.End),
					strconv.FormatBool(e.Complete),
					oneLine(e.Text))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output expressions as JSON")

	return cmd
}
