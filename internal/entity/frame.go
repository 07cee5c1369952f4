package entity

// Cell is one sampled value. Empty CSV fields become null cells, matching the
// missingness rules used everywhere downstream.
type Cell struct {
	Value string
	Null  bool
}

// Frame is a bounded, in-memory sample of dataset rows. Row indices are
// 1-based throughout so anomaly reports and citations line up with the raw
// file's data rows.
type Frame struct {
	Columns []string
	Rows    [][]Cell
}

// NumRows returns the number of sampled rows.
func (f *Frame) NumRows() int {
	return len(f.Rows)
}

// ColumnIndex returns the position of a column, or -1 when absent.
func (f *Frame) ColumnIndex(name string) int {
	for i, col := range f.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Column returns all cells of one column in row order. The second return is
// false when the column does not exist.
func (f *Frame) Column(name string) ([]Cell, bool) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	cells := make([]Cell, 0, len(f.Rows))
	for _, row := range f.Rows {
		cells = append(cells, row[idx])
	}
	return cells, true
}
