package tooling

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// lineIndex converts between rune offsets and line/character positions
type lineIndex struct {
	// starts holds the rune offset of the first character of each line
	starts []int
	// byteStarts holds the byte offset of the same characters
	byteStarts []int
	total      int
}

func newLineIndex(content string) lineIndex {
	starts := []int{0}
	byteStarts := []int{0}
	n := 0
	for i, ch := range content {
		n++
		if ch == '\n' {
			starts = append(starts, n)
			byteStarts = append(byteStarts, i+1)
		}
	}
	return lineIndex{starts: starts, byteStarts: byteStarts, total: n}
}

// line returns the text of a line without its newline
func (li lineIndex) line(content string, line int) string {
	if line < 0 || line >= len(li.byteStarts) {
		return ""
	}
	end := len(content)
	if line+1 < len(li.byteStarts) {
		end = li.byteStarts[line+1] - 1
	}
	return content[li.byteStarts[line]:end]
}

// RunePosition converts a position whose character counts UTF-16 code units, as
// LSP clients send them, to one counting runes
func (d *Document) RunePosition(pos Position) Position {
	units := pos.Character
	pos.Character = 0
	for _, ch := range d.lines.line(d.Content, pos.Line) {
		if units <= 0 {
			break
		}
		units -= utf16Len(ch)
		pos.Character++
	}
	return pos
}

// UTF16Position converts a position whose character counts runes to one counting
// UTF-16 code units
func (d *Document) UTF16Position(pos Position) Position {
	runes := pos.Character
	pos.Character = 0
	for _, ch := range d.lines.line(d.Content, pos.Line) {
		if runes <= 0 {
			break
		}
		runes--
		pos.Character += utf16Len(ch)
	}
	return pos
}

// UTF16Range converts both ends of r with UTF16Position
func (d *Document) UTF16Range(r Range) Range {
	return Range{Start: d.UTF16Position(r.Start), End: d.UTF16Position(r.End)}
}

func utf16Len(ch rune) int {
	if n := utf16.RuneLen(ch); n > 0 {
		return n
	}
	return 1
}

// position returns the position of a rune offset
func (li lineIndex) position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > li.total {
		offset = li.total
	}

	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return Position{Line: line, Character: offset - li.starts[line]}
}

// offset returns the rune offset of a position, clamped to its line
func (li lineIndex) offset(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(li.starts) {
		return li.total
	}

	start := li.starts[pos.Line]
	end := li.total
	if pos.Line+1 < len(li.starts) {
		end = li.starts[pos.Line+1] - 1
	}

	offset := start + pos.Character
	if pos.Character < 0 {
		offset = start
	}
	if offset > end {
		offset = end
	}
	return offset
}

func (li lineIndex) rangeOf(start, end int) Range {
	return Range{Start: li.position(start), End: li.position(end)}
}

func positionInRange(pos Position, r Range) bool {
	if pos.Line < r.Start.Line || pos.Line > r.End.Line {
		return false
	}
	if pos.Line == r.Start.Line && pos.Character < r.Start.Character {
		return false
	}
	if pos.Line == r.End.Line && pos.Character >= r.End.Character {
		return false
	}
	return true
}

// runePrefix returns the first n runes of s
func runePrefix(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

func runeCount(s string) int {
	return utf8.RuneCountInString(s)
}
