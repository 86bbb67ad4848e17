package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Veraticus/bomsort/internal/common"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet name used for exported workbooks.
const SheetName = "Classified BOM"

// WriteFile writes table to path in the format given by its extension.
func WriteFile(path string, table *Table) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %w", common.ErrIO, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %w", common.ErrIO, path, err)
	}

	if err := Write(f, format, table); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %w", common.ErrIO, path, err)
	}
	return nil
}

// Write encodes table to w.
func Write(w io.Writer, format Format, table *Table) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(w, table)
	case FormatCSV:
		return writeCSV(w, table)
	}
	return fmt.Errorf("unsupported format %q", format)
}

func writeXLSX(w io.Writer, table *Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, 1, table.Columns, false); err != nil {
		return err
	}
	for i, row := range table.Rows {
		if err := setRow(f, i+2, valuesFor(table.Columns, row), true); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%w: failed to write workbook: %w", common.ErrIO, err)
	}
	return nil
}

// setRow writes values starting at column A. With numbers set, values
// that read as plain decimal numbers are stored as numeric cells.
func setRow(f *excelize.File, rowNum int, values []string, numbers bool) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", rowNum, err)
	}

	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
		if numbers {
			if n, ok := numericCell(v); ok {
				cells[i] = n
			}
		}
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

// maxNumericWidth keeps numbers short enough that the General format
// displays them unchanged, so a written file reads back identically.
const maxNumericWidth = 11

// numericCell parses v when it is a number printed in canonical form.
// Part numbers like "007" or "1E5" stay text.
func numericCell(v string) (float64, bool) {
	if v == "" || len(v) > maxNumericWidth {
		return 0, false
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	if strconv.FormatFloat(n, 'f', -1, 64) != v {
		return 0, false
	}
	return n, true
}

func writeCSV(w io.Writer, table *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	for _, row := range table.Rows {
		if err := cw.Write(valuesFor(table.Columns, row)); err != nil {
			return fmt.Errorf("%w: %w", common.ErrIO, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	return nil
}
