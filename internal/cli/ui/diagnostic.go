package ui

import (
	"fmt"
	"io"

	"github.com/conduit-lang/excellent/internal/tooling"
	"github.com/fatih/color"
)

// FormatDiagnostic renders a diagnostic as file:line:column, one-based like
// compilers report them
func FormatDiagnostic(file string, d tooling.Diagnostic, noColor bool) string {
	var severity *color.Color
	switch d.Severity {
	case tooling.DiagnosticSeverityError:
		severity = color.New(color.FgRed, color.Bold)
	case tooling.DiagnosticSeverityWarning:
		severity = color.New(color.FgYellow, color.Bold)
	default:
		severity = color.New(color.FgCyan)
	}
	location := color.New(color.Bold)
	code := color.New(color.FgHiBlack)

	if noColor {
		severity.DisableColor()
		location.DisableColor()
		code.DisableColor()
	}

	return fmt.Sprintf("%s %s %s %s",
		location.Sprintf("%s:%d:%d:", file, d.Range.Start.Line+1, d.Range.Start.Character+1),
		severity.Sprintf("%s:", d.Severity),
		d.Message,
		code.Sprintf("[%s]", d.Code))
}

// WriteDiagnostics writes one line per diagnostic
func WriteDiagnostics(w io.Writer, file string, diagnostics []tooling.Diagnostic, noColor bool) {
	for _, d := range diagnostics {
		fmt.Fprintln(w, FormatDiagnostic(file, d, noColor))
	}
}
