package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Table renders rows as a box-drawn grid with centered cells.
type Table struct {
	widths  []int
	columns []string
	rows    [][]string
}

func NewTable(columns ...string) *Table {
	t := &Table{}
	for _, column := range columns {
		t.columns = append(t.columns, column)
		t.widths = append(t.widths, utf8.RuneCountInString(column)+2)
	}
	return t
}

// AddRow appends a row. Extra values beyond the column count are dropped and
// missing ones render empty.
func (t *Table) AddRow(values ...any) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(values) {
			row[i] = fmt.Sprint(values[i])
		}
		if width := utf8.RuneCountInString(row[i]) + 2; width > t.widths[i] {
			t.widths[i] = width
		}
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) String() string {
	var b strings.Builder
	b.WriteString(t.border("╔", "╦", "╗"))
	b.WriteByte('\n')
	b.WriteString(t.line(t.columns))
	b.WriteByte('\n')
	b.WriteString(t.border("║", "╬", "║"))
	for _, row := range t.rows {
		b.WriteByte('\n')
		b.WriteString(t.line(row))
	}
	b.WriteByte('\n')
	b.WriteString(t.border("╚", "╩", "╝"))
	return b.String()
}

func (t *Table) border(left, middle, right string) string {
	parts := make([]string, len(t.widths))
	for i, width := range t.widths {
		parts[i] = strings.Repeat("═", width)
	}
	return left + strings.Join(parts, middle) + right
}

func (t *Table) line(values []string) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = center(value, t.widths[i])
	}
	return "║" + strings.Join(parts, "║") + "║"
}

// center pads value to width, putting the odd space on the right.
func center(value string, width int) string {
	pad := width - utf8.RuneCountInString(value)
	if pad <= 0 {
		return value
	}
	left := pad / 2
	return strings.Repeat(" ", left) + value + strings.Repeat(" ", pad-left)
}
