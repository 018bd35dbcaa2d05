package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Table renders simple column-aligned output. When the destination is not a
// terminal (piped to a file or another process), output switches to plain
// tab-separated rows so downstream tools can parse it without padding.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable starts a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a row. len(cols) should match len(headers).
func (t *Table) AddRow(cols ...string) {
	t.rows = append(t.rows, cols)
}

// Fprint writes the table to w, padding columns when w is a terminal.
func (t *Table) Fprint(w io.Writer) {
	if isTerminalWriter(w) {
		t.writePadded(w)
		return
	}
	t.writePlain(w)
}

func (t *Table) writePlain(w io.Writer) {
	fmt.Fprintln(w, strings.Join(t.headers, "\t"))
	for _, row := range t.rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

func (t *Table) writePadded(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, c := range row {
			if i < len(widths) && len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	writeRow := func(dst io.Writer, cols []string) {
		parts := make([]string, len(cols))
		for i, c := range cols {
			colWidth := 0
			if i < len(widths) {
				colWidth = widths[i]
			}
			parts[i] = c + strings.Repeat(" ", colWidth-len(c))
		}
		fmt.Fprintln(dst, strings.Join(parts, "  "))
	}

	writeRow(w, t.headers)
	for _, row := range t.rows {
		writeRow(w, row)
	}
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
