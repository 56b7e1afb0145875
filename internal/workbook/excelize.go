package workbook

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/locvowork/offer_funnel/pkg/sheet"
	"github.com/xuri/excelize/v2"
)

// OpenFile loads every sheet of an .xlsx file into memory.
func OpenFile(path string) (*sheet.MemoryWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return decode(f)
}

// OpenReader loads every sheet of an .xlsx stream into memory.
func OpenReader(r io.Reader) (*sheet.MemoryWorkbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return decode(f)
}

func decode(f *excelize.File) (*sheet.MemoryWorkbook, error) {
	wb := sheet.NewMemoryWorkbook()
	for _, name := range f.GetSheetList() {
		formatted, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read raw sheet %q: %w", name, err)
		}
		wb.AddSheet(name, mergeRows(formatted, raw))
	}
	return wb, nil
}

// mergeRows types each cell from its displayed and raw text. A cell is a
// Number only when both forms read as numbers, so dates and other
// number-formatted text keep their displayed form.
func mergeRows(formatted, raw [][]string) []sheet.Row {
	rows := make([]sheet.Row, len(formatted))
	for i, fr := range formatted {
		var rr []string
		if i < len(raw) {
			rr = raw[i]
		}
		row := make(sheet.Row, len(fr))
		for j, shown := range fr {
			rawText := shown
			if j < len(rr) {
				rawText = rr[j]
			}
			row[j] = cellValue(shown, rawText)
		}
		rows[i] = row
	}
	return rows
}

func cellValue(shown, raw string) sheet.Value {
	if strings.TrimSpace(shown) == "" && strings.TrimSpace(raw) == "" {
		return sheet.Absent()
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && parseDisplayedNumber(shown) {
		return sheet.Number(n)
	}
	return sheet.Text(shown)
}
