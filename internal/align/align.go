// Package align intersects two tables on a shared key so that rows at equal
// positions refer to the same logical entity.
package align

import (
	"sort"

	"github.com/KaramelBytes/tabrec-cli/internal/table"
)

// Result holds two row-parallel tables restricted to their shared columns and
// shared key values. A and B always have the same row count, and the key at
// any position is identical (after normalization) between the two.
type Result struct {
	Key     string
	Columns []string
	A, B    *table.Table
}

// Align restricts both tables to their shared columns and to the rows whose
// normalized key appears in both, then sorts each side by the same column
// tuple so rows correspond positionally.
//
// sortExclude names columns left out of the sort tuple; the diff pipeline
// passes its compare columns here so that cells expected to differ cannot
// perturb row order. Rows with a missing key are dropped before matching.
// Duplicate keys keep their pre-sort relative order (the sort is stable) and
// pair up positionally; this is a documented limitation, not a relational
// join.
func Align(a, b *table.Table, key string, sortExclude ...string) (*Result, error) {
	shared := sharedColumns(a, b)
	found := false
	for _, c := range shared {
		if c == key {
			found = true
			break
		}
	}
	if !found {
		return nil, &table.SchemaError{Op: "align", Columns: []string{key}}
	}

	// Key first, then the remaining shared columns in first-seen order.
	ordered := []string{key}
	for _, c := range shared {
		if c != key {
			ordered = append(ordered, c)
		}
	}

	aCut, err := a.Select(ordered...)
	if err != nil {
		return nil, err
	}
	bCut, err := b.Select(ordered...)
	if err != nil {
		return nil, err
	}

	common := keyIntersection(aCut, bCut, key)
	aRows := filterSort(aCut, key, common, ordered, sortExclude)
	bRows := filterSort(bCut, key, common, ordered, sortExclude)

	return &Result{
		Key:     key,
		Columns: ordered,
		A:       aCut.SelectRows(aRows),
		B:       bCut.SelectRows(bRows),
	}, nil
}

// sharedColumns returns the column-name intersection in a's first-seen order.
func sharedColumns(a, b *table.Table) []string {
	var out []string
	for _, c := range a.Columns() {
		if b.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}

// keyIntersection collects normalized key values present in both tables.
func keyIntersection(a, b *table.Table, key string) map[string]bool {
	inA := map[string]bool{}
	for i := 0; i < a.NumRows(); i++ {
		if k, ok := table.NormKey(a.Value(i, key)); ok {
			inA[k] = true
		}
	}
	common := map[string]bool{}
	for i := 0; i < b.NumRows(); i++ {
		if k, ok := table.NormKey(b.Value(i, key)); ok && inA[k] {
			common[k] = true
		}
	}
	return common
}

// filterSort keeps rows whose key is in the shared set and stable-sorts the
// surviving positions by the ordered column tuple minus the excluded columns.
// The key column always sorts by its normalized form so both sides agree on
// case and whitespace.
func filterSort(t *table.Table, key string, keep map[string]bool, ordered, exclude []string) []int {
	skip := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		skip[c] = true
	}
	var sortCols []string
	for _, c := range ordered {
		if !skip[c] || c == key {
			sortCols = append(sortCols, c)
		}
	}

	var rows []int
	for i := 0; i < t.NumRows(); i++ {
		if k, ok := table.NormKey(t.Value(i, key)); ok && keep[k] {
			rows = append(rows, i)
		}
	}
	sort.SliceStable(rows, func(x, y int) bool {
		ri, rj := rows[x], rows[y]
		for _, c := range sortCols {
			vi, vj := t.Value(ri, c), t.Value(rj, c)
			var cmp int
			if c == key {
				ki, _ := table.NormKey(vi)
				kj, _ := table.NormKey(vj)
				switch {
				case ki < kj:
					cmp = -1
				case ki > kj:
					cmp = 1
				}
			} else {
				cmp = vi.Compare(vj)
			}
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	return rows
}
