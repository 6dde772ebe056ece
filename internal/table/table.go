// Package table renders ASCII tables whose cells may contain ANSI color
// codes.
package table

import (
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Alignment is the horizontal alignment of a column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func width(s string) int {
	return utf8.RuneCountInString(stripAnsi(s))
}

// Table accumulates rows and renders them to a writer.
type Table struct {
	w               io.Writer
	header          []string
	rows            [][]string
	columnAlignment []Alignment
	headerAlignment []Alignment
}

// NewTable returns an empty table writing to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

func (t *Table) WithColumnAlignment(a []Alignment) *Table {
	t.columnAlignment = a
	return t
}

func (t *Table) WithHeaderAlignment(a []Alignment) *Table {
	t.headerAlignment = a
	return t
}

func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = append(t.rows, rows...)
	return t
}

// Append adds a row.
func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

// Render writes the table.
func (t *Table) Render() {
	widths := t.widths()
	var sb strings.Builder
	border := t.border(widths)
	sb.WriteString(border)
	if len(t.header) > 0 {
		t.line(&sb, t.header, widths, t.headerAlignment)
		sb.WriteString(border)
	}
	for _, row := range t.rows {
		t.line(&sb, row, widths, t.columnAlignment)
	}
	sb.WriteString(border)
	io.WriteString(t.w, sb.String())
}

func (t *Table) widths() []int {
	n := len(t.header)
	for _, row := range t.rows {
		n = max(n, len(row))
	}
	widths := make([]int, n)
	for i, cell := range t.header {
		widths[i] = max(widths[i], width(cell))
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], width(cell))
		}
	}
	return widths
}

func (t *Table) border(widths []int) string {
	var sb strings.Builder
	sb.WriteByte('+')
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteByte('+')
	}
	sb.WriteByte('\n')
	return sb.String()
}

func (t *Table) line(sb *strings.Builder, cells []string, widths []int, align []Alignment) {
	sb.WriteByte('|')
	for i, w := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		a := AlignLeft
		if i < len(align) {
			a = align[i]
		}
		sb.WriteByte(' ')
		sb.WriteString(pad(cell, w, a))
		sb.WriteString(" |")
	}
	sb.WriteByte('\n')
}

func pad(s string, w int, a Alignment) string {
	gap := w - width(s)
	if gap <= 0 {
		return s
	}
	switch a {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}
