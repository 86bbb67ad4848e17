// Package tabular reads BOM spreadsheets into rows and writes classified
// tables back out. Excel workbooks and CSV files are supported.
package tabular

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/model"
)

// Format is a spreadsheet file format.
type Format string

// Supported formats.
const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DefaultOutputName is the file name used when no output path is given.
const DefaultOutputName = "classified_bom.xlsx"

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: unsupported file type %q (use .xlsx or .csv)", common.ErrInputFormat, filepath.Ext(path))
}

// Options controls how a table is read.
type Options struct {
	// Sheet selects a worksheet by name. Empty means the first sheet.
	Sheet string
	// SkipRows is the number of banner rows above the header.
	SkipRows int
}

// Table is a header plus its data rows.
type Table struct {
	Columns []string
	Rows    []model.Row
}

// build turns raw records into a Table. The first SkipRows records are
// skipped, the next is the header, and fully empty rows are dropped.
func build(records [][]string, opts Options) (*Table, error) {
	if opts.SkipRows < 0 {
		return nil, fmt.Errorf("%w: skip rows cannot be negative", common.ErrInputFormat)
	}
	if len(records) <= opts.SkipRows {
		return nil, fmt.Errorf("%w: no header row after skipping %d rows", common.ErrInputFormat, opts.SkipRows)
	}

	header := headerNames(records[opts.SkipRows])
	table := &Table{Columns: header}

	for _, record := range records[opts.SkipRows+1:] {
		row := model.NewRow(header, record)
		if row.IsEmpty() {
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// headerNames trims column names and makes them unique. Blank names
// become "Unnamed: N" and repeats get a ".N" suffix.
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	seen := make(map[string]int, len(raw))

	for i, name := range raw {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}

		base := name
		for seen[name] > 0 {
			name = fmt.Sprintf("%s.%d", base, seen[base])
			seen[base]++
		}
		seen[name]++
		names[i] = name
	}
	return names
}

// Export adds the Classification and Correct Classification columns to
// every row.
func Export(rows []model.ClassifiedRow) *Table {
	table := &Table{Rows: make([]model.Row, len(rows))}

	for i, r := range rows {
		row := r.Row.Without(model.ColumnClassification, model.ColumnCorrectClassification)
		row.Set(model.ColumnClassification, string(r.Classification))
		row.Set(model.ColumnCorrectClassification, string(r.CorrectClassification))
		table.Rows[i] = row

		if len(row.Columns) > len(table.Columns) {
			table.Columns = row.Columns
		}
	}

	if table.Columns == nil {
		table.Columns = ExportHeader(nil)
	}
	return table
}

// ExportHeader returns the header Export writes for rows with the given
// columns: any existing label columns move to the end.
func ExportHeader(columns []string) []string {
	header := make([]string, 0, len(columns)+2)
	for _, c := range columns {
		if c != model.ColumnClassification && c != model.ColumnCorrectClassification {
			header = append(header, c)
		}
	}
	return append(header, model.ColumnClassification, model.ColumnCorrectClassification)
}

// Classified reads the label columns of an exported table back into
// classified rows. A blank correction means the machine label was
// accepted; a blank machine label is treated as Unclassified.
func Classified(table *Table) ([]model.ClassifiedRow, error) {
	if !hasColumn(table.Columns, model.ColumnCorrectClassification) {
		return nil, fmt.Errorf("%w: missing %q column", common.ErrInputFormat, model.ColumnCorrectClassification)
	}
	if !hasColumn(table.Columns, model.ColumnClassification) {
		return nil, fmt.Errorf("%w: missing %q column", common.ErrInputFormat, model.ColumnClassification)
	}

	out := make([]model.ClassifiedRow, 0, len(table.Rows))
	for i, row := range table.Rows {
		machine, err := labelCell(row, model.ColumnClassification, model.LabelUnclassified)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", common.ErrInputFormat, i+1, err)
		}
		correct, err := labelCell(row, model.ColumnCorrectClassification, machine)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", common.ErrInputFormat, i+1, err)
		}

		out = append(out, model.ClassifiedRow{
			Row:                   row.Without(model.ColumnClassification, model.ColumnCorrectClassification),
			Classification:        machine,
			CorrectClassification: correct,
		})
	}
	return out, nil
}

func labelCell(row model.Row, column string, fallback model.Label) (model.Label, error) {
	value, ok := row.Get(column)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return model.ParseLabel(value)
}

func hasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

func valuesFor(columns []string, row model.Row) []string {
	values := make([]string, len(columns))
	for i, col := range columns {
		values[i], _ = row.Get(col)
	}
	return values
}
