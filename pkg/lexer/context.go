package lexer

import (
	"strings"
	"unicode/utf8"
)

// ExpressionContext returns the expression being typed at the end of text,
// without its prefix, e.g. "(flow.sen" for "Hi @(flow.sen". It returns false when
// the text doesn't end inside an expression or the last expression is complete.
func (l *Lexer) ExpressionContext(text string) (string, bool) {
	expressions := l.Scan(text)
	if len(expressions) == 0 {
		return "", false
	}

	last := expressions[len(expressions)-1]
	if last.End < utf8.RuneCountInString(text) || last.Complete {
		return "", false
	}

	return l.stripPrefix(last.Text), true
}

// AutoCompleteContext returns the dotted path fragment being typed at the end of
// text, e.g. "flow.sen" for "Hi @(flow.sen". It returns false when there is no
// expression context or the last typed token can't be part of an identifier,
// as in "@(flow.sender + ".
func (l *Lexer) AutoCompleteContext(text string) (string, bool) {
	fragment, ok := l.ExpressionContext(text)
	if !ok {
		return "", false
	}

	return completionPath(strings.TrimPrefix(fragment, "("))
}

// ExpressionAt returns the expression covering the character offset, if any
func (l *Lexer) ExpressionAt(text string, offset int) (Expression, bool) {
	for _, expr := range l.Scan(text) {
		if offset >= expr.Start && offset < expr.End {
			return expr, true
		}
		if expr.Start > offset {
			break
		}
	}
	return Expression{}, false
}

// completionPath extracts the identifier path at the end of an expression fragment
func completionPath(fragment string) (string, bool) {
	// an odd number of quotes means the fragment ends inside a string literal
	if strings.Count(fragment, `"`)%2 == 1 {
		return "", false
	}

	start := len(fragment)
	for start > 0 && isPathChar(rune(fragment[start-1])) {
		start--
	}
	path := fragment[start:]

	switch {
	case path == "":
		return "", false
	case path[0] == '.' || (path[0] >= '0' && path[0] <= '9'):
		return "", false
	case strings.Contains(path, ".."):
		return "", false
	}

	return path, true
}

func isPathChar(ch rune) bool {
	return isWordChar(ch) || ch == '.'
}
