package funnel

import "github.com/locvowork/offer_funnel/pkg/sheet"

const (
	// DefaultHeaderScanRows bounds the header and metadata search.
	DefaultHeaderScanRows = 10

	headerSL         = "SL"
	headerCompany    = "Company"
	totalOffersLabel = "Total Offers"
)

// HeaderInfo is what the locator finds at the top of a sheet.
type HeaderInfo struct {
	Found         bool
	RowIndex      int
	Row           sheet.Row
	ExpectedCount int
}

// LocateHeader scans the first scanRows rows for the header row (the first
// row holding both "SL" and "Company" as whole cell values) and,
// independently, for a "Total Offers" cell whose right neighbour is numeric.
// A non-positive scanRows falls back to DefaultHeaderScanRows.
func LocateHeader(rows []sheet.Row, scanRows int) HeaderInfo {
	if scanRows <= 0 {
		scanRows = DefaultHeaderScanRows
	}
	limit := scanRows
	if len(rows) < limit {
		limit = len(rows)
	}

	info := HeaderInfo{RowIndex: -1}
	expectedFound := false
	for i := 0; i < limit; i++ {
		row := rows[i]
		if !info.Found && isHeaderRow(row) {
			info.Found = true
			info.RowIndex = i
			info.Row = row
		}
		if !expectedFound {
			if n, ok := expectedCountIn(row); ok {
				info.ExpectedCount = n
				expectedFound = true
			}
		}
	}
	return info
}

func isHeaderRow(row sheet.Row) bool {
	hasSL, hasCompany := false, false
	for _, c := range row {
		if !c.IsText() {
			continue
		}
		switch c.String() {
		case headerSL:
			hasSL = true
		case headerCompany:
			hasCompany = true
		}
	}
	return hasSL && hasCompany
}

// expectedCountIn finds "Total Offers" in row. ok is true once the label is
// seen; a non-numeric neighbour yields zero.
func expectedCountIn(row sheet.Row) (int, bool) {
	for i, c := range row {
		if !c.IsText() || c.String() != totalOffersLabel {
			continue
		}
		if n, isNum := row.CellAt(i + 1).Float(); isNum {
			return int(n), true
		}
		return 0, true
	}
	return 0, false
}
