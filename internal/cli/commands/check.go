package commands

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/conduit-lang/excellent/internal/cli/ui"
	"github.com/conduit-lang/excellent/internal/tooling"
	"github.com/conduit-lang/excellent/internal/watch"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	var watchFiles bool

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Report problems in templates",
		Long: `Report unterminated expressions and misspelled top-level names.

Reads stdin when no files are given. Exits with status 1 when any file has a
warning or an error; hints alone don't fail the check.

With --watch the files are checked again whenever they change, until
interrupted.

Examples:
  excellent check messages/*.txt
  excellent check --watch welcome.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watchFiles && len(args) == 0 {
				return fmt.Errorf("--watch needs at least one file")
			}

			env, err := loadEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.OutOrStdout()

			var failed bool
			if len(args) == 0 {
				name, text, err := readInput(cmd, args)
				if err != nil {
					return err
				}
				failed = checkText(out, env.api, name, text)
			} else {
				failed, err = checkFiles(out, env.api, args)
				if err != nil {
					return err
				}
			}

			if !failed {
				ui.WriteSuccess(out, "No problems found", noColor)
			}

			if watchFiles {
				return watchAndCheck(cmd, env, args)
			}

			if failed {
				return ErrProblemsFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "Check again when files change")

	return cmd
}

// checkFiles checks each file and reports whether any had warnings or errors
func checkFiles(w io.Writer, api *tooling.API, files []string) (bool, error) {
	failed := false
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return failed, fmt.Errorf("failed to read %s: %w", file, err)
		}
		if checkText(w, api, file, string(data)) {
			failed = true
		}
	}
	return failed, nil
}

func checkText(w io.Writer, api *tooling.API, name, text string) bool {
	diagnostics := api.Check(text)
	ui.WriteDiagnostics(w, name, diagnostics, noColor)

	for _, d := range diagnostics {
		if d.Severity == tooling.DiagnosticSeverityError || d.Severity == tooling.DiagnosticSeverityWarning {
			return true
		}
	}
	return false
}

func watchAndCheck(cmd *cobra.Command, env *environment, files []string) error {
	out := cmd.OutOrStdout()

	// the debouncer may flush again while a check is still printing
	var mu sync.Mutex
	watcher, err := watch.NewFileWatcher(watch.Config{
		Paths:  files,
		Logger: env.logger,
	}, func(changed []string) error {
		mu.Lock()
		defer mu.Unlock()

		failed, err := checkFiles(out, env.api, changed)
		if err == nil && !failed {
			ui.WriteSuccess(out, "No problems found", noColor)
		}
		return err
	})
	if err != nil {
		return err
	}

	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	fmt.Fprint(cmd.ErrOrStderr(), ui.Info(fmt.Sprintf("Watching %d file(s) for changes, press Ctrl+C to stop", len(files)), noColor))

	<-cmd.Context().Done()
	return nil
}
