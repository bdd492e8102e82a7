package lexer

import (
	"strings"
)

// IsValid reports whether expression text (including its prefix) references an
// acceptable top level. Parenthesized expressions are always valid. When
// allowIncomplete is set the top level only needs to be a prefix of an allowed
// name, so @con is accepted while the user is still typing @contact.
func (l *Lexer) IsValid(text string, allowIncomplete bool) bool {
	body := l.stripPrefix(text)

	if strings.HasPrefix(body, "(") {
		return true
	}

	topLevel := TopLevel(body)

	for _, allowed := range l.allowedTopLevels {
		if allowIncomplete {
			if strings.HasPrefix(allowed, topLevel) {
				return true
			}
		} else if allowed == topLevel {
			return true
		}
	}

	return false
}

// TopLevel returns the lower-cased first segment of a dotted path,
// e.g. "contact" for "Contact.Name"
func TopLevel(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[:i]
	}
	return strings.ToLower(path)
}
