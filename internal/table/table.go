package table

import (
	"fmt"
	"strings"
)

// Table is an ordered set of named columns plus an ordered sequence of rows.
// Column names are unique within a table. Engine components never mutate a
// table handed to them; derived results are always new tables.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]Value
}

// New constructs an empty table with the given column names.
func New(cols ...string) (*Table, error) {
	t := &Table{
		cols:  append([]string(nil), cols...),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, dup := t.index[c]; dup {
			return nil, fmt.Errorf("new table: duplicate column %q", c)
		}
		t.index[c] = i
	}
	return t, nil
}

// MustNew is New for statically known column sets (tests, derived results).
func MustNew(cols ...string) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns the column names in order. The slice is a copy.
func (t *Table) Columns() []string { return append([]string(nil), t.cols...) }

// NumCols reports the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// NumRows reports the row count.
func (t *Table) NumRows() int { return len(t.rows) }

// HasColumn reports whether a column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of a column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// AppendRow adds a row. The value count must match the column count.
func (t *Table) AppendRow(vals ...Value) error {
	if len(vals) != len(t.cols) {
		return fmt.Errorf("append row: got %d values for %d columns", len(vals), len(t.cols))
	}
	t.rows = append(t.rows, append([]Value(nil), vals...))
	return nil
}

// Value returns the cell at (row, column). Out-of-range access returns Missing.
func (t *Table) Value(row int, col string) Value {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.rows) {
		return Missing()
	}
	return t.rows[row][i]
}

// ValueAt returns the cell at (row, column index).
func (t *Table) ValueAt(row, col int) Value {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.cols) {
		return Missing()
	}
	return t.rows[row][col]
}

// Set overwrites the cell at (row, column). It is used while building derived
// tables; callers own the table they mutate.
func (t *Table) Set(row int, col string, v Value) error {
	i, ok := t.index[col]
	if !ok {
		return fmt.Errorf("set: unknown column %q", col)
	}
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("set: row %d out of range", row)
	}
	t.rows[row][i] = v
	return nil
}

// Row returns a copy of the row at the given position.
func (t *Table) Row(i int) []Value {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return append([]Value(nil), t.rows[i]...)
}

// Select returns a new table restricted to the named columns, in the given
// order, copying every row.
func (t *Table) Select(cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("select: unknown column %q", c)
		}
		idx[i] = j
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	for _, row := range t.rows {
		vals := make([]Value, len(idx))
		for i, j := range idx {
			vals[i] = row[j]
		}
		out.rows = append(out.rows, vals)
	}
	return out, nil
}

// SelectRows returns a new table containing the rows at the given positions,
// in that order.
func (t *Table) SelectRows(rows []int) *Table {
	out := MustNew(t.cols...)
	for _, i := range rows {
		if i < 0 || i >= len(t.rows) {
			continue
		}
		out.rows = append(out.rows, append([]Value(nil), t.rows[i]...))
	}
	return out
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	out := MustNew(t.cols...)
	out.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		out.rows[i] = append([]Value(nil), row...)
	}
	return out
}

// Rename returns a new table with a single column renamed.
func (t *Table) Rename(from, to string) (*Table, error) {
	if !t.HasColumn(from) {
		return nil, fmt.Errorf("rename: unknown column %q", from)
	}
	if from != to && t.HasColumn(to) {
		return nil, fmt.Errorf("rename: column %q already exists", to)
	}
	cols := t.Columns()
	for i, c := range cols {
		if c == from {
			cols[i] = to
		}
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		out.rows[i] = append([]Value(nil), row...)
	}
	return out, nil
}

// WithColumn returns a new table with an extra column appended, every row
// filled with the given value.
func (t *Table) WithColumn(name string, fill Value) (*Table, error) {
	if t.HasColumn(name) {
		return nil, fmt.Errorf("with column: column %q already exists", name)
	}
	out, err := New(append(t.Columns(), name)...)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		out.rows[i] = append(append([]Value(nil), row...), fill)
	}
	return out, nil
}

// SchemaError reports required columns missing from a table, with the
// operation that needed them.
type SchemaError struct {
	Op      string
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column(s): %s", e.Op, strings.Join(e.Columns, ", "))
}

// RequireColumns validates that every named column exists, returning a
// SchemaError listing all the absent ones. Engine entry points call this
// before doing any work.
func RequireColumns(op string, t *Table, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Op: op, Columns: missing}
	}
	return nil
}
