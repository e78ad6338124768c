package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Table buffers rows and writes them column-aligned on Flush, under a header
// line and a dash divider. A table without rows prints nothing.
type Table struct {
	out     io.Writer
	headers []string
	rows    [][]string
}

// NewTable creates a table on stdout with the given column headers.
func NewTable(headers ...string) *Table {
	return NewTableTo(os.Stdout, headers...)
}

// NewTableTo creates a table writing to w.
func NewTableTo(w io.Writer, headers ...string) *Table {
	return &Table{out: w, headers: headers}
}

// Row appends a row. Missing trailing cells print empty.
func (t *Table) Row(values ...string) {
	t.rows = append(t.rows, values)
}

// Len reports the number of rows added so far.
func (t *Table) Len() int {
	return len(t.rows)
}

// Flush writes the table and resets it.
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}
	w := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
	dividers := make([]string, len(t.headers))
	for i, h := range t.headers {
		dividers[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(t.headers, "\t"))
	fmt.Fprintln(w, strings.Join(dividers, "\t"))
	for _, row := range t.rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
	t.rows = nil
}
