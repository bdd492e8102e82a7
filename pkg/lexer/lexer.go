// Package lexer locates Excellent expressions embedded in free-form text.
//
// An expression starts with a prefix character (by default '@') and is either a
// dotted identifier path such as @contact.name or a parenthesized expression such
// as @(flow.sender). Besides finding complete expressions for evaluation, the lexer
// answers what the user is currently typing at the end of the input so editors can
// offer autocomplete suggestions.
package lexer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultPrefix is the expression prefix used when none is configured
const DefaultPrefix = '@'

// DefaultTopLevels are the context names a flow exposes to templates
var DefaultTopLevels = []string{"channel", "contact", "date", "extra", "flow", "step", "parent", "child"}

// ErrInvalidPrefix is returned when the configured prefix would be ambiguous
// with expression syntax
var ErrInvalidPrefix = errors.New("invalid expression prefix")

// Expression is a located expression span. Start and End are character offsets
// into the scanned text, End is exclusive. Text always begins with the prefix.
type Expression struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Text     string `json:"text"`
	Complete bool   `json:"complete"`
}

// Len returns the number of characters covered by the expression
func (e Expression) Len() int {
	return e.End - e.Start
}

// Lexer finds expressions in text.
//
// Thread Safety: a Lexer is immutable after New returns and may be shared by any
// number of goroutines. Each call scans its input from scratch.
type Lexer struct {
	prefix           rune
	allowedTopLevels []string
}

// Option configures a Lexer
type Option func(*Lexer)

// WithPrefix sets the expression prefix character
func WithPrefix(prefix rune) Option {
	return func(l *Lexer) {
		l.prefix = prefix
	}
}

// WithAllowedTopLevels sets the top-level names an identifier expression may reference.
// Names are compared case-insensitively.
func WithAllowedTopLevels(names ...string) Option {
	return func(l *Lexer) {
		l.allowedTopLevels = make([]string, 0, len(names))
		for _, name := range names {
			name = strings.ToLower(strings.TrimSpace(name))
			if name != "" {
				l.allowedTopLevels = append(l.allowedTopLevels, name)
			}
		}
	}
}

// New creates a Lexer with the given options applied over the defaults
func New(opts ...Option) (*Lexer, error) {
	l := &Lexer{prefix: DefaultPrefix}
	WithAllowedTopLevels(DefaultTopLevels...)(l)

	for _, opt := range opts {
		opt(l)
	}

	if err := validatePrefix(l.prefix); err != nil {
		return nil, err
	}

	return l, nil
}

// Default returns a Lexer using DefaultPrefix and DefaultTopLevels
func Default() *Lexer {
	l, err := New()
	if err != nil {
		panic(err)
	}
	return l
}

// Prefix returns the expression prefix character
func (l *Lexer) Prefix() rune {
	return l.prefix
}

// AllowedTopLevels returns a copy of the allowed top-level names
func (l *Lexer) AllowedTopLevels() []string {
	names := make([]string, len(l.allowedTopLevels))
	copy(names, l.allowedTopLevels)
	return names
}

func validatePrefix(prefix rune) error {
	switch {
	case prefix == utf8.RuneError || prefix == 0:
		return fmt.Errorf("%w: empty", ErrInvalidPrefix)
	case isWordChar(prefix):
		return fmt.Errorf("%w: %q is a word character", ErrInvalidPrefix, prefix)
	case prefix == '(' || prefix == ')' || prefix == '"' || prefix == '.':
		return fmt.Errorf("%w: %q is expression syntax", ErrInvalidPrefix, prefix)
	}
	return nil
}

// stripPrefix removes the leading prefix character from expression text
func (l *Lexer) stripPrefix(text string) string {
	_, size := utf8.DecodeRuneInString(text)
	return text[size:]
}

// isWordChar matches \w: ASCII letters, digits and underscore
func isWordChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_'
}
