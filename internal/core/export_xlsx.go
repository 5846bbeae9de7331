package core

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Products"

// ExportXLSX writes the same columns and cells as ExportCSV to a workbook,
// with a styled header row.
func ExportXLSX(w io.Writer, products []Product) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", xlsxSheet)

	records := make([]exportRecord, len(products))
	for i, p := range products {
		records[i] = flatten(p)
	}
	cols := exportColumns(records)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return errors.Wrap(err, "xlsx header style")
	}

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(xlsxSheet, cell, col); err != nil {
			return errors.Wrapf(err, "xlsx header %s", col)
		}
		f.SetCellStyle(xlsxSheet, cell, cell, headerStyle)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(xlsxSheet, colName, colName, 20)
	}

	for rowIdx, r := range records {
		for colIdx, col := range cols {
			v, ok := r.values[col]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(xlsxSheet, cell, v); err != nil {
				return errors.Wrapf(err, "xlsx cell %s", cell)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "write xlsx")
	}
	return nil
}

// XLSXToCSV converts the first sheet of a workbook to CSV text so it can go
// through the regular import pipeline.
func XLSXToCSV(r io.Reader) (string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", newImportError("upload a valid .xlsx workbook", "open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return "", errors.Wrap(err, "read xlsx rows")
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(quoteAll(row), ",")
	}
	return strings.Join(lines, "\n"), nil
}
