package tooling

import (
	"context"
	"fmt"
	"strings"

	"github.com/conduit-lang/excellent/internal/vocabulary"
	"github.com/conduit-lang/excellent/pkg/lexer"
	"go.uber.org/zap"
)

// GetHover returns hover information for the expression under the cursor.
// Returns (nil, nil) when the cursor isn't on an expression.
func (a *API) GetHover(ctx context.Context, uri string, pos Position) (*Hover, error) {
	doc, err := a.document(uri)
	if err != nil {
		return nil, err
	}

	expr, ok := a.lexer.ExpressionAt(doc.Content, doc.lines.offset(pos))
	if !ok {
		return nil, nil //nolint:nilnil // nil hover is valid when no expression at position
	}

	return &Hover{
		Contents: a.buildHover(ctx, expr),
		Range:    doc.lines.rangeOf(expr.Start, expr.End),
	}, nil
}

func (a *API) buildHover(ctx context.Context, expr lexer.Expression) string {
	var content strings.Builder

	content.WriteString("```excellent\n")
	content.WriteString(expr.Text)
	content.WriteString("\n```\n\n")

	if parenthesized(expr) {
		if expr.Complete {
			content.WriteString("**Expression**\n")
		} else {
			content.WriteString("**Expression** *(unterminated)*\n")
		}
		return content.String()
	}

	path := vocabulary.NormalizePath(body(a.lexer, expr))
	content.WriteString(fmt.Sprintf("**Context path** in `%s`\n", lexer.TopLevel(path)))

	if detail := a.describe(ctx, path); detail != "" {
		content.WriteString("\n")
		content.WriteString(detail)
		content.WriteString("\n")
	}

	return content.String()
}

// describe looks up the vocabulary detail of a path
func (a *API) describe(ctx context.Context, path string) string {
	parent, name := vocabulary.SplitPath(path)

	entries, err := a.vocab.Children(ctx, parent)
	if err != nil {
		a.logger.Warn("failed to load vocabulary for hover", zap.String("path", path), zap.Error(err))
		return ""
	}

	for _, e := range entries {
		if e.Name == name {
			return e.Detail
		}
	}
	return ""
}
