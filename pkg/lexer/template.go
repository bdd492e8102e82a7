package lexer

import (
	"fmt"
	"strings"
)

// Resolver evaluates the body of an expression, e.g. "contact.name" or
// "(contact.age + 1)", and renders the result as text
type Resolver func(expression string) (string, error)

// Expand replaces each expression in text with the resolver's result. Doubled
// prefixes become a single literal prefix. Expressions that reference a top level
// that isn't allowed, that never terminate, or that fail to resolve are kept as
// they were written; resolver failures are returned alongside the output.
func (l *Lexer) Expand(text string, resolve Resolver) (string, []error) {
	var out strings.Builder
	out.Grow(len(text))

	var errs []error

	l.walk([]rune(text), hooks{
		body: func(ch rune) {
			out.WriteRune(ch)
		},
		candidate: func(c *candidate, _ bool) {
			expression := string(c.text)

			if !c.terminated || resolve == nil || !l.IsValid(expression, false) {
				out.WriteString(expression)
				return
			}

			value, err := resolve(l.stripPrefix(expression))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", expression, err))
				out.WriteString(expression)
				return
			}

			out.WriteString(value)
		},
	})

	return out.String(), errs
}
