package tooling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name string
		text string
		want []Diagnostic
	}{
		{
			name: "clean",
			text: "Hi @contact.name, you owe @(1 + 2)",
			want: []Diagnostic{},
		},
		{
			name: "unterminated",
			text: "Hi @(contact.name",
			want: []Diagnostic{{
				Range:    Range{Start: Position{Line: 0, Character: 3}, End: Position{Line: 0, Character: 17}},
				Severity: DiagnosticSeverityWarning,
				Code:     CodeUnterminatedExpression,
				Message:  "expression is missing a closing parenthesis",
				Source:   "excellent",
			}},
		},
		{
			name: "misspelled top level",
			text: "Hi @contcat.name",
			want: []Diagnostic{{
				Range:    Range{Start: Position{Line: 0, Character: 3}, End: Position{Line: 0, Character: 11}},
				Severity: DiagnosticSeverityHint,
				Code:     CodeUnknownTopLevel,
				Message:  `unknown top level "contcat", did you mean "contact"?`,
				Source:   "excellent",
			}},
		},
		{
			name: "email address",
			text: "Write to bob@example.com",
			want: []Diagnostic{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, api.Check(tt.text))
		})
	}
}

func TestGetDiagnostics_Multiline(t *testing.T) {
	api := newTestAPI(t)
	api.OpenDocument("a.txt", "Hello @flw.name\nTotal: @(SUM(1,\n2)", 1)

	diagnostics, err := api.GetDiagnostics("a.txt")
	require.NoError(t, err)
	require.Len(t, diagnostics, 2)

	assert.Equal(t, CodeUnterminatedExpression, diagnostics[0].Code)
	assert.Equal(t, Position{Line: 1, Character: 7}, diagnostics[0].Range.Start)
	assert.Equal(t, Position{Line: 2, Character: 2}, diagnostics[0].Range.End)

	assert.Equal(t, CodeUnknownTopLevel, diagnostics[1].Code)
	assert.Equal(t, Position{Line: 0, Character: 6}, diagnostics[1].Range.Start)
	assert.Equal(t, Position{Line: 0, Character: 10}, diagnostics[1].Range.End)
	assert.Contains(t, diagnostics[1].Message, `"flow"`)
}

func TestDiagnosticSeverity_String(t *testing.T) {
	assert.Equal(t, "error", DiagnosticSeverityError.String())
	assert.Equal(t, "warning", DiagnosticSeverityWarning.String())
	assert.Equal(t, "info", DiagnosticSeverityInfo.String())
	assert.Equal(t, "hint", DiagnosticSeverityHint.String())
}
