package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Veraticus/bomsort/internal/common"
	"github.com/xuri/excelize/v2"
)

// ReadFile reads the table stored at path. The format comes from the
// file extension.
func ReadFile(path string, opts Options) (*Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInputFormat, err)
	}
	defer func() { _ = f.Close() }()

	return Read(f, format, opts)
}

// Read reads a table in the given format from r.
func Read(r io.Reader, format Format, opts Options) (*Table, error) {
	var (
		records [][]string
		err     error
	)

	switch format {
	case FormatXLSX:
		records, err = readXLSX(r, opts.Sheet)
	case FormatCSV:
		records, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", common.ErrInputFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return build(records, opts)
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open workbook: %w", common.ErrInputFormat, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", common.ErrInputFormat)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read sheet %q: %w", common.ErrInputFormat, sheet, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrInputFormat, err)
		}
		records = append(records, record)
	}
	return records, nil
}
