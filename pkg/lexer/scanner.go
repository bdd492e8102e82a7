package lexer

// candidate is the single in-progress expression during a scan
type candidate struct {
	start int
	end   int
	text  []rune

	// terminated is set when the expression closed structurally, as opposed to
	// the input running out while it was still being scanned
	terminated bool

	// depth is the parenthesis depth when the candidate was resolved
	depth int
}

// parenthesized reports whether the candidate is of the @( form
func (c *candidate) parenthesized() bool {
	return len(c.text) > 1 && c.text[1] == '('
}

func (c *candidate) expression() Expression {
	return Expression{
		Start:    c.start,
		End:      c.end,
		Text:     string(c.text),
		Complete: c.parenthesized() && c.depth == 0,
	}
}

// hooks receives the output of a walk. Either field may be nil.
type hooks struct {
	// body receives text outside expressions, with escaped prefixes collapsed
	body func(ch rune)

	// candidate receives each candidate once it terminates or the input ends.
	// atEnd is true when the candidate was resolved on the last character.
	candidate func(c *candidate, atEnd bool)
}

// walk runs the scanner state machine over text in a single left-to-right pass.
// Lookahead is limited to two characters: deciding whether the b in a.b ends an
// identifier requires telling a.b. (it does) from a.b.c (it doesn't).
//
//nolint:gocyclo,cyclop // state machine dispatch
func (l *Lexer) walk(text []rune, h hooks) {
	state := Body
	depth := 0
	var current *candidate

	for pos := 0; pos < len(text); pos++ {
		ch := text[pos]
		next, hasNext := peek(text, pos+1)
		nextNext, hasNextNext := peek(text, pos+2)

		switch state {
		case Body:
			switch {
			case ch == l.prefix && hasNext && (isWordChar(next) || next == '('):
				state = Prefix
				current = &candidate{start: pos, text: []rune{ch}}
			case ch == l.prefix && hasNext && next == l.prefix:
				state = EscapedPrefix
			default:
				emit(h.body, ch)
			}

		case Prefix:
			if isWordChar(ch) {
				state = Identifier
			} else if ch == '(' {
				state = Balanced
				depth++
			}
			current.text = append(current.text, ch)

		case Identifier:
			current.text = append(current.text, ch)

		case Balanced:
			switch ch {
			case '(':
				depth++
			case ')':
				depth--
			case '"':
				state = StringLiteral
			}
			current.text = append(current.text, ch)

			if depth == 0 {
				current.terminated = true
			}

		case StringLiteral:
			if ch == '"' {
				state = Balanced
			}
			current.text = append(current.text, ch)

		case EscapedPrefix:
			state = Body
			emit(h.body, ch)
		}

		// an identifier ends at the end of input, before a character that can't
		// continue it, or before a period that isn't followed by a word character
		if state == Identifier {
			if !hasNext ||
				(!isWordChar(next) && next != '.') ||
				(next == '.' && (!hasNextNext || !isWordChar(nextNext))) {
				current.terminated = true
			}
		}

		if current != nil && (current.terminated || !hasNext) {
			current.end = pos + 1
			current.depth = depth
			if h.candidate != nil {
				h.candidate(current, !hasNext)
			}

			current = nil
			state = Body
			depth = 0
		}
	}
}

// Scan returns the expressions in text ordered by position. Identifier expressions
// must reference an allowed top level; at the end of the input a prefix of an
// allowed name is enough, since the user may still be typing it.
func (l *Lexer) Scan(text string) []Expression {
	expressions := make([]Expression, 0)

	l.walk([]rune(text), hooks{
		candidate: func(c *candidate, atEnd bool) {
			if l.IsValid(string(c.text), atEnd) {
				expressions = append(expressions, c.expression())
			}
		},
	})

	return expressions
}

// Unresolved returns the identifier expressions in text that Scan drops because
// their top level is not allowed, e.g. @nyaruka in "Hi from @nyaruka"
func (l *Lexer) Unresolved(text string) []Expression {
	rejected := make([]Expression, 0)

	l.walk([]rune(text), hooks{
		candidate: func(c *candidate, atEnd bool) {
			if !l.IsValid(string(c.text), atEnd) {
				rejected = append(rejected, c.expression())
			}
		},
	})

	return rejected
}

func peek(text []rune, pos int) (rune, bool) {
	if pos < len(text) {
		return text[pos], true
	}
	return 0, false
}

func emit(fn func(rune), ch rune) {
	if fn != nil {
		fn(ch)
	}
}
