// Package diff computes per-cell changes between two aligned tables.
package diff

import (
	"fmt"

	"github.com/KaramelBytes/tabrec-cli/internal/align"
	"github.com/KaramelBytes/tabrec-cli/internal/table"
)

// Record is one changed cell: the row position in the aligned result, the
// column name, and the two values.
type Record struct {
	Row    int
	Column string
	Old    table.Value
	New    table.Value
}

// Result is the highlighted comparison table plus the change records in
// row-major emission order.
type Result struct {
	Table   *table.Table
	Records []Record

	changedRows map[int]bool
}

// Diff compares the aligned pair cell by cell over compareCols. Cells where
// both sides are missing count as equal. Unequal cells are rewritten in the
// result table as an "old → new" transition string; all other cells keep
// table A's values. Columns not shared by both inputs are silently skipped,
// and the key column is never compared.
func Diff(al *align.Result, compareCols []string) (*Result, error) {
	if al == nil || al.A == nil || al.B == nil {
		return nil, fmt.Errorf("diff: nil alignment")
	}
	if al.A.NumRows() != al.B.NumRows() {
		return nil, fmt.Errorf("diff: misaligned inputs: %d vs %d rows", al.A.NumRows(), al.B.NumRows())
	}

	var cols []string
	for _, c := range compareCols {
		if c != al.Key && al.A.HasColumn(c) && al.B.HasColumn(c) {
			cols = append(cols, c)
		}
	}

	out := al.A.Clone()
	res := &Result{Table: out, changedRows: map[int]bool{}}
	for i := 0; i < al.A.NumRows(); i++ {
		for _, c := range cols {
			oldV := al.A.Value(i, c)
			newV := al.B.Value(i, c)
			if oldV.IsMissing() && newV.IsMissing() {
				continue
			}
			if oldV.Equal(newV) {
				continue
			}
			transition := fmt.Sprintf("%s → %s", oldV.String(), newV.String())
			if err := out.Set(i, c, table.Text(transition)); err != nil {
				return nil, err
			}
			res.Records = append(res.Records, Record{Row: i, Column: c, Old: oldV, New: newV})
			res.changedRows[i] = true
		}
	}
	return res, nil
}

// RowChanged reports whether the row at the given position has at least one
// changed cell. O(1).
func (r *Result) RowChanged(row int) bool { return r.changedRows[row] }

// FilteredTable returns only the rows that have at least one change, in their
// original order.
func (r *Result) FilteredTable() *table.Table {
	var rows []int
	for i := 0; i < r.Table.NumRows(); i++ {
		if r.changedRows[i] {
			rows = append(rows, i)
		}
	}
	return r.Table.SelectRows(rows)
}
