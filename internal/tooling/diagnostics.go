package tooling

import (
	"fmt"

	strutil "github.com/conduit-lang/excellent/internal/util/strings"
	"github.com/conduit-lang/excellent/pkg/lexer"
)

// Diagnostic codes
const (
	CodeUnterminatedExpression = "unterminated_expression"
	CodeUnknownTopLevel        = "unknown_top_level"
)

// GetDiagnostics returns diagnostics for an open document
func (a *API) GetDiagnostics(uri string) ([]Diagnostic, error) {
	doc, err := a.document(uri)
	if err != nil {
		return nil, err
	}
	return a.diagnose(doc.Content, doc.lines), nil
}

// Check computes diagnostics for text that isn't held as a document
func (a *API) Check(text string) []Diagnostic {
	return a.diagnose(text, newLineIndex(text))
}

func (a *API) diagnose(text string, lines lineIndex) []Diagnostic {
	diagnostics := make([]Diagnostic, 0)

	for _, expr := range a.lexer.Scan(text) {
		if !parenthesized(expr) || expr.Complete {
			continue
		}
		diagnostics = append(diagnostics, Diagnostic{
			Range:    lines.rangeOf(expr.Start, expr.End),
			Severity: DiagnosticSeverityWarning,
			Code:     CodeUnterminatedExpression,
			Message:  "expression is missing a closing parenthesis",
			Source:   diagnosticSource,
		})
	}

	allowed := a.lexer.AllowedTopLevels()
	for _, expr := range a.lexer.Unresolved(text) {
		name := lexer.TopLevel(body(a.lexer, expr))

		// anything without a close match is ordinary text such as an email address
		suggestions := strutil.FindSimilar(name, allowed, &strutil.SimilarOptions{MaxDistance: 2, MaxSuggestions: 1})
		if len(suggestions) == 0 {
			continue
		}

		diagnostics = append(diagnostics, Diagnostic{
			Range:    lines.rangeOf(expr.Start, expr.Start+1+runeCount(name)),
			Severity: DiagnosticSeverityHint,
			Code:     CodeUnknownTopLevel,
			Message:  fmt.Sprintf("unknown top level %q, did you mean %q?", name, suggestions[0]),
			Source:   diagnosticSource,
		})
	}

	return diagnostics
}

// body returns the expression text without its prefix
func body(l *lexer.Lexer, expr lexer.Expression) string {
	runes := []rune(expr.Text)
	if len(runes) > 0 && runes[0] == l.Prefix() {
		return string(runes[1:])
	}
	return expr.Text
}

func parenthesized(expr lexer.Expression) bool {
	runes := []rune(expr.Text)
	return len(runes) > 1 && runes[1] == '('
}
