package workbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/locvowork/offer_funnel/pkg/sheet"
	"github.com/thedatashed/xlsxreader"
	"github.com/xuri/excelize/v2"
)

// OpenStream reads an .xlsx file row by row with xlsxreader, which keeps
// memory flat for large ledgers. Sparse rows and cells are padded with
// Absent so row and column indices match the sheet.
func OpenStream(path string) (*sheet.MemoryWorkbook, error) {
	xl, err := xlsxreader.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer xl.Close()

	wb := sheet.NewMemoryWorkbook()
	for _, name := range xl.Sheets {
		rows, err := streamSheet(&xl.XlsxFile, name)
		if err != nil {
			return nil, err
		}
		wb.AddSheet(name, rows)
	}
	return wb, nil
}

func streamSheet(xl *xlsxreader.XlsxFile, name string) ([]sheet.Row, error) {
	var rows []sheet.Row
	for r := range xl.ReadRows(name) {
		if r.Error != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, r.Error)
		}
		// Row.Index is 1-based.
		for len(rows) < r.Index-1 {
			rows = append(rows, sheet.Row{})
		}
		row, err := streamRow(r.Cells)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", name, r.Index, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func streamRow(cells []xlsxreader.Cell) (sheet.Row, error) {
	var row sheet.Row
	for _, c := range cells {
		col, err := excelize.ColumnNameToNumber(c.Column)
		if err != nil {
			return nil, err
		}
		for len(row) < col {
			row = append(row, sheet.Absent())
		}
		row[col-1] = streamValue(c)
	}
	return row, nil
}

func streamValue(c xlsxreader.Cell) sheet.Value {
	if strings.TrimSpace(c.Value) == "" {
		return sheet.Absent()
	}
	if c.Type == xlsxreader.TypeNumerical {
		if n, err := strconv.ParseFloat(c.Value, 64); err == nil {
			return sheet.Number(n)
		}
	}
	return sheet.Text(c.Value)
}
