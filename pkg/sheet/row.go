package sheet

// Row is one decoded spreadsheet row, positionally indexed. A nil Row
// stands for a row the decoder never saw.
type Row []Value

// NewRow builds a Row from loosely typed values (see Of).
func NewRow(cells ...interface{}) Row {
	r := make(Row, len(cells))
	for i, c := range cells {
		r[i] = Of(c)
	}
	return r
}

// CellAt returns the cell at index, or Absent when the index is negative
// (an unresolved column) or past the end of the row.
func (r Row) CellAt(index int) Value {
	if index < 0 || index >= len(r) {
		return Absent()
	}
	return r[index]
}

// IsEmpty reports whether the row is missing or holds only empty cells.
func (r Row) IsEmpty() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Workbook exposes decoded sheets by name.
type Workbook interface {
	SheetNames() []string
	Rows(sheet string) ([]Row, bool)
}

// MemoryWorkbook is a Workbook held entirely in memory.
type MemoryWorkbook struct {
	names  []string
	sheets map[string][]Row
}

// NewMemoryWorkbook creates an empty in-memory workbook.
func NewMemoryWorkbook() *MemoryWorkbook {
	return &MemoryWorkbook{sheets: make(map[string][]Row)}
}

// AddSheet adds or replaces a sheet, keeping first-insertion order.
func (w *MemoryWorkbook) AddSheet(name string, rows []Row) *MemoryWorkbook {
	if _, ok := w.sheets[name]; !ok {
		w.names = append(w.names, name)
	}
	w.sheets[name] = rows
	return w
}

func (w *MemoryWorkbook) SheetNames() []string {
	out := make([]string, len(w.names))
	copy(out, w.names)
	return out
}

func (w *MemoryWorkbook) Rows(name string) ([]Row, bool) {
	rows, ok := w.sheets[name]
	return rows, ok
}
