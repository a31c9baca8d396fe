// Package merge outer-joins tables on a normalized key and reshapes paired
// sources into a wide forecast comparison.
package merge

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabrec-cli/internal/table"
)

// KeyColumn is the canonical name of the join key in merged output.
const KeyColumn = "merge_key"

// Input pairs a source table with the column used as its merge key.
type Input struct {
	Table     *table.Table
	KeyColumn string
}

// MergeError reports a declared key column absent from one of the inputs. The
// whole merge is aborted; nothing already joined is returned.
type MergeError struct {
	TableIndex int
	Column     string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge: table %d has no column %q", e.TableIndex+1, e.Column)
}

// Merge full-outer-joins the inputs in order on their declared key columns.
// The first table seeds the result with its key renamed to merge_key; key
// values are coerced to trimmed strings (missing becomes the empty string).
// Non-key columns of a later table that collide with an already-present
// column are renamed with the ordinal suffix of that table's join position
// ("_second", "_third", ...). Rows present on only one side keep missing
// values for the other side's columns.
func Merge(inputs []Input) (*table.Table, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("merge: no input tables")
	}
	for i, in := range inputs {
		if in.Table == nil {
			return nil, fmt.Errorf("merge: table %d is nil", i+1)
		}
		if !in.Table.HasColumn(in.KeyColumn) {
			return nil, &MergeError{TableIndex: i, Column: in.KeyColumn}
		}
	}

	merged, err := seed(inputs[0])
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(inputs); i++ {
		merged, err = outerJoin(merged, inputs[i], i)
		if err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// seed builds the base table from the first input.
func seed(in Input) (*table.Table, error) {
	cols := make([]string, 0, in.Table.NumCols())
	for _, c := range in.Table.Columns() {
		if c == in.KeyColumn {
			cols = append(cols, KeyColumn)
		} else {
			cols = append(cols, c)
		}
	}
	out, err := table.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	keyIdx, _ := in.Table.ColumnIndex(in.KeyColumn)
	for r := 0; r < in.Table.NumRows(); r++ {
		row := in.Table.Row(r)
		row[keyIdx] = keyString(row[keyIdx])
		if err := out.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// outerJoin joins the accumulated result with the input at join position
// pos (0-based; the table's ordinal is pos+1).
func outerJoin(left *table.Table, in Input, pos int) (*table.Table, error) {
	suffix := "_" + OrdinalWord(pos+1)

	// Right-side columns, key excluded, collisions suffixed.
	type rightCol struct {
		src  string
		name string
	}
	var rights []rightCol
	for _, c := range in.Table.Columns() {
		if c == in.KeyColumn {
			continue
		}
		name := c
		if left.HasColumn(name) {
			name = c + suffix
		}
		rights = append(rights, rightCol{src: c, name: name})
	}

	cols := left.Columns()
	for _, rc := range rights {
		cols = append(cols, rc.name)
	}
	out, err := table.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("merge: table %d: %w", pos+1, err)
	}

	// Index right rows by normalized key string.
	rightRows := map[string][]int{}
	for r := 0; r < in.Table.NumRows(); r++ {
		k := keyString(in.Table.Value(r, in.KeyColumn)).String()
		rightRows[k] = append(rightRows[k], r)
	}

	leftKeys := map[string]bool{}
	for r := 0; r < left.NumRows(); r++ {
		k := left.Value(r, KeyColumn).String()
		leftKeys[k] = true
		matches := rightRows[k]
		if len(matches) == 0 {
			row := left.Row(r)
			for range rights {
				row = append(row, table.Missing())
			}
			if err := out.AppendRow(row...); err != nil {
				return nil, err
			}
			continue
		}
		for _, m := range matches {
			row := left.Row(r)
			for _, rc := range rights {
				row = append(row, in.Table.Value(m, rc.src))
			}
			if err := out.AppendRow(row...); err != nil {
				return nil, err
			}
		}
	}

	// Rows present only on the right keep missing values on the left side.
	keyIdx, _ := out.ColumnIndex(KeyColumn)
	for r := 0; r < in.Table.NumRows(); r++ {
		k := keyString(in.Table.Value(r, in.KeyColumn)).String()
		if leftKeys[k] {
			continue
		}
		row := make([]table.Value, left.NumCols())
		for i := range row {
			row[i] = table.Missing()
		}
		row[keyIdx] = table.Text(k)
		for _, rc := range rights {
			row = append(row, in.Table.Value(r, rc.src))
		}
		if err := out.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// keyString coerces a merge key cell to its trimmed string form; missing
// becomes the empty string so absent keys still join deterministically.
func keyString(v table.Value) table.Value {
	if v.IsMissing() {
		return table.Text("")
	}
	return table.Text(strings.TrimSpace(v.String()))
}

// OrdinalWord spells out small ordinals ("first" through "tenth") and falls
// back to the numeric form ("11th", "22nd") beyond that.
func OrdinalWord(n int) string {
	words := map[int]string{
		1: "first", 2: "second", 3: "third", 4: "fourth", 5: "fifth",
		6: "sixth", 7: "seventh", 8: "eighth", 9: "ninth", 10: "tenth",
	}
	if w, ok := words[n]; ok {
		return w
	}
	return fmt.Sprintf("%d%s", n, ordinalSuffix(n))
}

func ordinalSuffix(n int) string {
	if m := n % 100; m >= 10 && m <= 20 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
