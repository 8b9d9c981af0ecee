package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// textTable lays out rows in fixed-width columns measured in terminal cells.
type textTable struct {
	headers    []string
	rows       [][]string
	rightAlign map[int]bool
	ruleAfter  map[int]bool
}

func newTextTable(headers ...string) *textTable {
	return &textTable{
		headers:    headers,
		rightAlign: map[int]bool{},
		ruleAfter:  map[int]bool{},
	}
}

func (t *textTable) alignRight(cols ...int) {
	for _, c := range cols {
		t.rightAlign[c] = true
	}
}

func (t *textTable) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

// rule draws a dashed line under the most recently added row.
func (t *textTable) rule() {
	if len(t.rows) > 0 {
		t.ruleAfter[len(t.rows)-1] = true
	}
}

func (t *textTable) lines() []string {
	widths := t.columnWidths()
	if len(widths) == 0 {
		return nil
	}
	ruleLine := t.ruleLine(widths)
	out := make([]string, 0, len(t.rows)+2)
	if len(t.headers) > 0 {
		out = append(out, t.formatRow(t.headers, widths), ruleLine)
	}
	for i, row := range t.rows {
		out = append(out, t.formatRow(row, widths))
		if t.ruleAfter[i] {
			out = append(out, ruleLine)
		}
	}
	return out
}

func (t *textTable) columnWidths() []int {
	count := len(t.headers)
	for _, row := range t.rows {
		count = max(count, len(row))
	}
	widths := make([]int, count)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], displayWidth(cell))
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func (t *textTable) formatRow(row []string, widths []int) string {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padCell(cell, width, t.rightAlign[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func (t *textTable) ruleLine(widths []int) string {
	total := 0
	for _, w := range widths {
		total += w
	}
	total += 2 * (len(widths) - 1)
	return strings.Repeat("-", total)
}

func padCell(value string, width int, rightAlign bool) string {
	padding := width - displayWidth(value)
	if padding <= 0 {
		return value
	}
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
