package ui

import (
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

const columnGap = "  "

// Table writes rows under a header and a rule. Columns holding only integers,
// such as expression offsets, are right-aligned.
type Table struct {
	w       io.Writer
	columns []column
	rows    [][]string
	style   style
}

// TableOptions configures a Table
type TableOptions struct {
	NoColor bool
}

type column struct {
	title   string
	width   int
	numeric bool
}

type style struct {
	header *color.Color
	rule   *color.Color
	key    *color.Color
}

func newStyle(noColor bool) style {
	s := style{
		header: color.New(color.Bold, color.FgCyan),
		rule:   color.New(color.FgHiBlack),
		key:    color.New(color.FgCyan),
	}
	if noColor {
		s.header.DisableColor()
		s.rule.DisableColor()
		s.key.DisableColor()
	}
	return s
}

// NewTable creates a table with one column per header
func NewTable(w io.Writer, headers []string, opts *TableOptions) *Table {
	if opts == nil {
		opts = &TableOptions{}
	}

	columns := make([]column, len(headers))
	for i, h := range headers {
		columns[i] = column{title: h}
	}

	return &Table{w: w, columns: columns, style: newStyle(opts.NoColor)}
}

// AddRow appends a row. Missing cells render empty and extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.columns))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Render writes the table. Widths count characters, not bytes.
func (t *Table) Render() {
	if len(t.columns) == 0 {
		return
	}
	t.measure()

	titles := make([]string, len(t.columns))
	rules := make([]string, len(t.columns))
	for i, c := range t.columns {
		titles[i] = c.title
		rules[i] = strings.Repeat("─", c.width)
	}

	t.writeLine(titles, t.style.header)
	t.writeLine(rules, t.style.rule)
	for _, row := range t.rows {
		t.writeLine(row, nil)
	}
}

func (t *Table) measure() {
	for i := range t.columns {
		c := &t.columns[i]
		c.width = width(c.title)
		c.numeric = len(t.rows) > 0

		for _, row := range t.rows {
			c.width = max(c.width, width(row[i]))
			if _, err := strconv.Atoi(row[i]); err != nil && row[i] != "" {
				c.numeric = false
			}
		}
	}
}

func (t *Table) writeLine(cells []string, c *color.Color) {
	var b strings.Builder
	last := len(t.columns) - 1

	for i, col := range t.columns {
		cell := cells[i]
		switch {
		case col.numeric:
			cell = padLeft(cell, col.width)
		case i < last:
			cell = padRight(cell, col.width)
		}

		if c != nil {
			cell = c.Sprint(cell)
		}
		b.WriteString(cell)
		if i < last {
			b.WriteString(columnGap)
		}
	}

	b.WriteByte('\n')
	io.WriteString(t.w, b.String())
}

func width(s string) int {
	return utf8.RuneCountInString(s)
}

// padRight pads s with spaces on the right to w characters
func padRight(s string, w int) string {
	if n := width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}

func padLeft(s string, w int) string {
	if n := width(s); n < w {
		return strings.Repeat(" ", w-n) + s
	}
	return s
}

// KeyValueTable writes "key: value" lines with the values lined up
type KeyValueTable struct {
	w     io.Writer
	pairs [][2]string
	style style
}

// NewKeyValueTable creates an empty KeyValueTable
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{w: w, style: newStyle(noColor)}
}

// AddRow appends a key and its value
func (t *KeyValueTable) AddRow(key, value string) {
	t.pairs = append(t.pairs, [2]string{key + ":", value})
}

// Render writes the pairs in the order they were added
func (t *KeyValueTable) Render() {
	keyWidth := 0
	for _, p := range t.pairs {
		keyWidth = max(keyWidth, width(p[0]))
	}

	var b strings.Builder
	for _, p := range t.pairs {
		b.WriteString(t.style.key.Sprint(padRight(p[0], keyWidth)))
		b.WriteByte(' ')
		b.WriteString(p[1])
		b.WriteByte('\n')
	}
	io.WriteString(t.w, b.String())
}
