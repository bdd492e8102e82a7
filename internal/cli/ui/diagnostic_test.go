package ui

import (
	"bytes"
	"testing"

	"github.com/conduit-lang/excellent/internal/tooling"
)

func TestFormatDiagnostic(t *testing.T) {
	d := tooling.Diagnostic{
		Range: tooling.Range{
			Start: tooling.Position{Line: 1, Character: 4},
			End:   tooling.Position{Line: 1, Character: 12},
		},
		Severity: tooling.DiagnosticSeverityWarning,
		Code:     "unterminated_expression",
		Message:  "expression is missing a closing parenthesis",
	}

	want := "welcome.txt:2:5: warning: expression is missing a closing parenthesis [unterminated_expression]"
	if got := FormatDiagnostic("welcome.txt", d, true); got != want {
		t.Errorf("FormatDiagnostic() = %q, want %q", got, want)
	}
}

func TestWriteDiagnostics(t *testing.T) {
	diagnostics := []tooling.Diagnostic{
		{Severity: tooling.DiagnosticSeverityHint, Code: "a", Message: "first"},
		{Severity: tooling.DiagnosticSeverityError, Code: "b", Message: "second"},
	}

	var buf bytes.Buffer
	WriteDiagnostics(&buf, "-", diagnostics, true)

	want := "-:1:1: hint: first [a]\n-:1:1: error: second [b]\n"
	if buf.String() != want {
		t.Errorf("WriteDiagnostics() output = %q, want %q", buf.String(), want)
	}
}
