package tabular

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// bannerCSV returns a CSV with the given number of banner lines before
// the header, mimicking a BOM export.
func bannerCSV(banner int, body string) string {
	var b strings.Builder
	for i := 0; i < banner; i++ {
		fmt.Fprintf(&b, "Project report line %d,,\n", i+1)
	}
	b.WriteString(body)
	return b.String()
}

func TestRead_CSVSkipsBannerAndEmptyRows(t *testing.T) {
	input := bannerCSV(10, "Type,Description,Model,Qty\n"+
		"RF,Amplifier,BDA-1,2\n"+
		",,,\n"+
		"Passive,\"Splitter, 2-way\",SP2,4\n"+
		"\n")

	table, err := Read(strings.NewReader(input), FormatCSV, Options{SkipRows: 10})
	require.NoError(t, err)

	assert.Equal(t, []string{"Type", "Description", "Model", "Qty"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Amplifier", table.Rows[0].Description.Value)
	assert.Equal(t, "Splitter, 2-way", table.Rows[1].Description.Value)
	assert.Equal(t, []string{"Passive", "Splitter, 2-way", "SP2", "4"}, table.Rows[1].Values())
}

func TestRead_MissingColumnsAreEmpty(t *testing.T) {
	table, err := Read(strings.NewReader("Description,Qty\nAntenna,1\n"), FormatCSV, Options{})
	require.NoError(t, err)

	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	assert.False(t, row.Type.Present)
	assert.False(t, row.Model.Present)
	assert.Equal(t, "Antenna", row.Description.Value)
}

func TestRead_NoHeader(t *testing.T) {
	_, err := Read(strings.NewReader("a\nb\n"), FormatCSV, Options{SkipRows: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInputFormat)
}

func TestRead_NotAWorkbook(t *testing.T) {
	_, err := Read(strings.NewReader("plain text"), FormatXLSX, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInputFormat)
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	require.NoError(t, f.SetCellValue(sheet, "A1", "iBwave Design - Bill of Materials"))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Type", "Description", "Model", "Qty"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Antenna", "Omni ceiling", "ANT-1", 12}))
	require.NoError(t, f.SetSheetRow(sheet, "A6", &[]any{"Cable", "1/2\" plenum", "", 300}))

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	table, err := Read(&buf, FormatXLSX, Options{SkipRows: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"Type", "Description", "Model", "Qty"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Antenna", table.Rows[0].Type.Value)
	assert.Equal(t, "12", table.Rows[0].Values()[3])
	assert.Equal(t, "1/2\" plenum", table.Rows[1].Description.Value)
}

func TestRead_XLSXUnknownSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, &Table{Columns: []string{"Type"}}))

	_, err := Read(&buf, FormatXLSX, Options{Sheet: "Nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInputFormat)
}

func TestHeaderNames(t *testing.T) {
	got := headerNames([]string{"\ufeffType", " Description ", "", "Qty", "Qty", "Qty"})
	assert.Equal(t, []string{"Type", "Description", "Unnamed: 2", "Qty", "Qty.1", "Qty.2"}, got)
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("bom.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = FormatFromPath("/tmp/bom.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = FormatFromPath("bom.xls")
	assert.ErrorIs(t, err, common.ErrInputFormat)
}

func classifiedFixture() []model.ClassifiedRow {
	cols := []string{"Item", "Type", "Description", "Model"}
	return []model.ClassifiedRow{
		model.NewClassifiedRow(model.NewRow(cols, []string{"1", "RF", "Amplifier", "A1"}), model.LabelActive, "amplifier"),
		{
			Row:                   model.NewRow(cols, []string{"2", "", "Splitter two way", ""}),
			Classification:        model.LabelUnclassified,
			CorrectClassification: model.LabelPassive,
		},
	}
}

func TestExport(t *testing.T) {
	table := Export(classifiedFixture())

	assert.Equal(t, []string{"Item", "Type", "Description", "Model", model.ColumnClassification, model.ColumnCorrectClassification}, table.Columns)
	assert.Equal(t, []string{"1", "RF", "Amplifier", "A1", "Active", "Active"}, table.Rows[0].Values())
	assert.Equal(t, []string{"2", "", "Splitter two way", "", "Unclassified", "Passive"}, table.Rows[1].Values())
}

func TestExport_Empty(t *testing.T) {
	table := Export(nil)
	assert.Equal(t, []string{model.ColumnClassification, model.ColumnCorrectClassification}, table.Columns)
	assert.Empty(t, table.Rows)
}

func TestExportHeader(t *testing.T) {
	assert.Equal(t,
		[]string{"Type", "Model", model.ColumnClassification, model.ColumnCorrectClassification},
		ExportHeader([]string{"Type", model.ColumnClassification, "Model"}))
	assert.Equal(t, Export(nil).Columns, ExportHeader(nil))
}

func TestWriteAndReadBack(t *testing.T) {
	for _, name := range []string{"out.csv", "out.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", name)
			require.NoError(t, WriteFile(path, Export(classifiedFixture())))

			table, err := ReadFile(path, Options{})
			require.NoError(t, err)

			rows, err := Classified(table)
			require.NoError(t, err)
			require.Len(t, rows, 2)

			assert.Equal(t, model.LabelActive, rows[0].Classification)
			assert.False(t, rows[0].Corrected())
			assert.Equal(t, model.LabelUnclassified, rows[1].Classification)
			assert.Equal(t, model.LabelPassive, rows[1].CorrectClassification)
			assert.Equal(t, "Splitter two way", rows[1].Row.Description.Value)
			assert.Equal(t, []string{"Item", "Type", "Description", "Model"}, rows[1].Row.Columns)
		})
	}
}

func TestWriteXLSX_NumericCells(t *testing.T) {
	cols := []string{"Part", "Qty", "Price", "Model", "Serial"}
	table := &Table{
		Columns: cols,
		Rows:    []model.Row{model.NewRow(cols, []string{"007", "3", "12.5", "1E5", "123456789012345"})},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, table))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	tests := []struct {
		cell    string
		value   string
		numeric bool
	}{
		{cell: "B1", value: "Qty", numeric: false},
		{cell: "A2", value: "007", numeric: false},
		{cell: "B2", value: "3", numeric: true},
		{cell: "C2", value: "12.5", numeric: true},
		{cell: "D2", value: "1E5", numeric: false},
		{cell: "E2", value: "123456789012345", numeric: false},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			value, err := f.GetCellValue(SheetName, tt.cell)
			require.NoError(t, err)
			assert.Equal(t, tt.value, value)

			typ, err := f.GetCellType(SheetName, tt.cell)
			require.NoError(t, err)
			if tt.numeric {
				assert.NotEqual(t, excelize.CellTypeSharedString, typ)
				assert.NotEqual(t, excelize.CellTypeInlineString, typ)
			} else {
				assert.Equal(t, excelize.CellTypeSharedString, typ)
			}
		})
	}
}

func TestNumericCell(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{in: "3", want: 3, ok: true},
		{in: "-2.25", want: -2.25, ok: true},
		{in: "0", want: 0, ok: true},
		{in: "", ok: false},
		{in: "007", ok: false},
		{in: "3.0", ok: false},
		{in: "1e5", ok: false},
		{in: "+4", ok: false},
		{in: "NaN", ok: false},
		{in: "+Inf", ok: false},
		{in: "BDA-700", ok: false},
		{in: "123456789012", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := numericCell(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClassified_Errors(t *testing.T) {
	_, err := Classified(&Table{Columns: []string{"Type", model.ColumnClassification}})
	assert.ErrorIs(t, err, common.ErrInputFormat)

	_, err = Classified(&Table{Columns: []string{"Type", model.ColumnCorrectClassification}})
	assert.ErrorIs(t, err, common.ErrInputFormat)

	cols := []string{"Type", model.ColumnClassification, model.ColumnCorrectClassification}
	_, err = Classified(&Table{
		Columns: cols,
		Rows:    []model.Row{model.NewRow(cols, []string{"Amp", "Active", "Probably"})},
	})
	assert.ErrorIs(t, err, common.ErrInputFormat)
}

func TestClassified_BlankLabels(t *testing.T) {
	cols := []string{"Type", model.ColumnClassification, model.ColumnCorrectClassification}
	rows, err := Classified(&Table{
		Columns: cols,
		Rows: []model.Row{
			model.NewRow(cols, []string{"Amp", "Active", ""}),
			model.NewRow(cols, []string{"Coupler", "", "passive"}),
		},
	})
	require.NoError(t, err)

	assert.False(t, rows[0].Corrected())
	assert.Equal(t, model.LabelUnclassified, rows[1].Classification)
	assert.Equal(t, model.LabelPassive, rows[1].CorrectClassification)
}

func TestWriteFile_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := WriteFile(path, &Table{})
	assert.ErrorIs(t, err, common.ErrInputFormat)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
