// Package model defines the core data structures for the bomsort application.
package model

// Column names consumed from or added to a BOM table.
const (
	ColumnType                  = "Type"
	ColumnDescription           = "Description"
	ColumnModel                 = "Model"
	ColumnClassification        = "Classification"
	ColumnCorrectClassification = "Correct Classification"
)

// Field is an optional cell value. A column missing from the table or a
// blank cell is not Present.
type Field struct {
	Value   string
	Present bool
}

// Cell is a single pass-through column value.
type Cell struct {
	Column string
	Value  string
}

// Row is one BOM line. Type, Description and Model are the columns the
// classifier reads; every other column is carried in Extra so the table
// can be exported unchanged.
type Row struct {
	Type        Field
	Description Field
	Model       Field
	Extra       []Cell
	Columns     []string
}

// NewRow builds a Row from a header and the matching values. Values
// beyond the header are dropped and missing trailing values are blank.
func NewRow(columns, values []string) Row {
	row := Row{Columns: append([]string(nil), columns...)}

	for i, col := range columns {
		var value string
		if i < len(values) {
			value = values[i]
		}
		row.Set(col, value)
	}

	return row
}

// Set assigns value to column, adding the column if the row lacks it.
func (r *Row) Set(column, value string) {
	field := Field{Value: value, Present: value != ""}

	if !r.hasColumn(column) {
		r.Columns = append(r.Columns, column)
	}

	switch column {
	case ColumnType:
		r.Type = field
	case ColumnDescription:
		r.Description = field
	case ColumnModel:
		r.Model = field
	default:
		for i := range r.Extra {
			if r.Extra[i].Column == column {
				r.Extra[i].Value = value
				return
			}
		}
		r.Extra = append(r.Extra, Cell{Column: column, Value: value})
	}
}

// Get returns the value stored under column and whether it was set.
func (r Row) Get(column string) (string, bool) {
	switch column {
	case ColumnType:
		return r.Type.Value, r.Type.Present
	case ColumnDescription:
		return r.Description.Value, r.Description.Present
	case ColumnModel:
		return r.Model.Value, r.Model.Present
	}

	for _, c := range r.Extra {
		if c.Column == column {
			return c.Value, c.Value != ""
		}
	}
	return "", false
}

// Values returns the row's cells in column order.
func (r Row) Values() []string {
	out := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		out[i], _ = r.Get(col)
	}
	return out
}

// IsEmpty reports whether every cell in the row is blank.
func (r Row) IsEmpty() bool {
	if r.Type.Present || r.Description.Present || r.Model.Present {
		return false
	}
	for _, c := range r.Extra {
		if c.Value != "" {
			return false
		}
	}
	return true
}

func (r Row) hasColumn(column string) bool {
	for _, c := range r.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Without returns a copy of r with the named columns removed.
func (r Row) Without(columns ...string) Row {
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}

	var cols, vals []string
	for _, col := range r.Columns {
		if drop[col] {
			continue
		}
		v, _ := r.Get(col)
		cols = append(cols, col)
		vals = append(vals, v)
	}
	return NewRow(cols, vals)
}
