// Package output renders CLI results as tables. Every command prints one
// thing, so there is no --output json/yaml flag to support.
package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by types that can render themselves as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes data as a formatted table to the writer.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range data.Rows() {
		table.Append(row)
	}
	table.Render()
	return nil
}

// Rows is a TableRenderer backed by a fixed header and slice of rows, for
// commands that build their table ad hoc rather than off a model type.
type Rows struct {
	headers []string
	rows    [][]string
}

// NewRows creates a Rows table with the given headers.
func NewRows(headers ...string) *Rows {
	return &Rows{headers: headers}
}

// Add appends a row.
func (t *Rows) Add(row ...string) {
	t.rows = append(t.rows, row)
}

func (t *Rows) Headers() []string { return t.headers }
func (t *Rows) Rows() [][]string  { return t.rows }
