package lexer

// State is the scanner's position in the expression grammar
type State int

const (
	// Body is plain text outside any expression
	Body State = iota
	// Prefix is the prefix character that starts an expression
	Prefix
	// Identifier is a dotted path such as contact.age in @contact.age
	Identifier
	// Balanced is a parenthesized expression such as (1 + 2) in @(1 + 2)
	Balanced
	// StringLiteral is a quoted string inside a balanced expression, which may contain parentheses
	StringLiteral
	// EscapedPrefix is the second prefix of a doubled prefix
	EscapedPrefix
)

// String returns the name of the state
func (s State) String() string {
	switch s {
	case Body:
		return "Body"
	case Prefix:
		return "Prefix"
	case Identifier:
		return "Identifier"
	case Balanced:
		return "Balanced"
	case StringLiteral:
		return "StringLiteral"
	case EscapedPrefix:
		return "EscapedPrefix"
	default:
		return "Unknown"
	}
}
