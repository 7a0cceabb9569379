package ui

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// Table collects rows and renders them once with tablewriter.
type Table struct {
	table *tablewriter.Table
	rows  int
}

// NewTable starts a table writing to w with the given column headers.
func NewTable(w io.Writer, headers ...string) *Table {
	table := tablewriter.NewWriter(w)
	cols := make([]any, len(headers))
	for i, h := range headers {
		cols[i] = h
	}
	table.Header(cols...)
	return &Table{table: table}
}

// Row appends one row. Cells beyond the header count are ignored by the
// renderer.
func (t *Table) Row(cells ...string) error {
	t.rows++
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return t.table.Append(row...)
}

// Len returns the number of rows appended so far.
func (t *Table) Len() int {
	return t.rows
}

// Render writes the table.
func (t *Table) Render() error {
	return t.table.Render()
}
