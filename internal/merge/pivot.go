package merge

import (
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/tabrec-cli/internal/table"
)

// Column names derived by the forecast comparison.
const (
	SourceA       = "source1"
	SourceB       = "source2"
	DifferenceCol = "Difference"
	SimilarityCol = "Similarity%"
)

// CompareOptions configures a forecast comparison. Column names for source B
// default to source A's names when left empty. GroupColumn is optional; when
// it is missing from either input the comparison silently degrades to an
// ungrouped pivot.
type CompareOptions struct {
	IDColumnA    string
	ValueColumnA string
	IDColumnB    string
	ValueColumnB string
	ExtraColumns []string
	GroupColumn  string
}

// Pivot is the wide comparison result: one row per entity (plus extra and
// group dimensions), one value column per source, and the derived Difference
// and Similarity% columns. Rows are sorted by Difference descending with ties
// broken by Similarity% ascending.
type Pivot struct {
	Table       *table.Table
	GroupColumn string
}

// GroupSlice is one per-group sub-table of a grouped pivot, with the group
// column itself removed.
type GroupSlice struct {
	Name  string
	Table *table.Table
}

// CompareForecasts aligns two forecast sources on a normalized id, stacks
// them, and pivots to a wide comparison.
//
// B's id and value columns are renamed to A's; B's missing extra columns are
// enriched from A via the normalized id (first match wins); value cells are
// coerced to numbers with missing and non-numeric treated as 0; duplicate
// (entity, source) pairs keep their first occurrence. Similarity% uses source
// A as the reference denominator: (1 - |s1-s2|/s1) * 100 when s1 is nonzero,
// else 0.
func CompareForecasts(a, b *table.Table, opts CompareOptions) (*Pivot, error) {
	idA, valA := opts.IDColumnA, opts.ValueColumnA
	idB, valB := opts.IDColumnB, opts.ValueColumnB
	if idB == "" {
		idB = idA
	}
	if valB == "" {
		valB = valA
	}

	required := append([]string{idA, valA}, opts.ExtraColumns...)
	if err := table.RequireColumns("compare forecasts", a, required...); err != nil {
		return nil, err
	}
	if err := table.RequireColumns("compare forecasts", b, idB, valB); err != nil {
		return nil, err
	}

	group := opts.GroupColumn
	if group != "" && (!a.HasColumn(group) || !b.HasColumn(group)) {
		group = ""
	}

	colsA := append([]string{idA, valA}, opts.ExtraColumns...)
	colsB := []string{idB, valB}
	if group != "" {
		colsA = append(colsA, group)
		colsB = append(colsB, group)
	}

	aCut, err := a.Select(colsA...)
	if err != nil {
		return nil, err
	}
	bCut, err := b.Select(colsB...)
	if err != nil {
		return nil, err
	}

	aCut = normalizeIDs(aCut, idA)
	bCut = normalizeIDs(bCut, idB)

	if idB != idA {
		if bCut, err = bCut.Rename(idB, idA); err != nil {
			return nil, err
		}
	}
	if valB != valA {
		if bCut, err = bCut.Rename(valB, valA); err != nil {
			return nil, err
		}
	}

	// Left-enrich B with A's extra columns it does not carry itself.
	lookup := firstByID(aCut, idA)
	for _, c := range opts.ExtraColumns {
		if bCut.HasColumn(c) {
			continue
		}
		if bCut, err = bCut.WithColumn(c, table.Missing()); err != nil {
			return nil, err
		}
		for r := 0; r < bCut.NumRows(); r++ {
			id := bCut.Value(r, idA).String()
			if src, ok := lookup[id]; ok {
				if err := bCut.Set(r, c, aCut.Value(src, c)); err != nil {
					return nil, err
				}
			}
		}
	}

	// Restrict both to the column intersection in A's order.
	var common []string
	for _, c := range aCut.Columns() {
		if bCut.HasColumn(c) {
			common = append(common, c)
		}
	}
	if aCut, err = aCut.Select(common...); err != nil {
		return nil, err
	}
	if bCut, err = bCut.Select(common...); err != nil {
		return nil, err
	}

	indexCols := make([]string, 0, len(common)-1)
	for _, c := range common {
		if c != valA {
			indexCols = append(indexCols, c)
		}
	}

	// Stack both sources and pivot; first occurrence wins per (entity, source).
	type entry struct {
		index  []table.Value
		values map[string]float64
	}
	order := []string{}
	entries := map[string]*entry{}
	stack := func(t *table.Table, source string) {
		for r := 0; r < t.NumRows(); r++ {
			parts := make([]string, len(indexCols))
			index := make([]table.Value, len(indexCols))
			for i, c := range indexCols {
				index[i] = t.Value(r, c)
				parts[i] = index[i].String()
			}
			key := strings.Join(parts, "\x1f")
			e := entries[key]
			if e == nil {
				e = &entry{index: index, values: map[string]float64{}}
				entries[key] = e
				order = append(order, key)
			}
			if _, seen := e.values[source]; !seen {
				e.values[source] = t.Value(r, valA).Float()
			}
		}
	}
	stack(aCut, SourceA)
	stack(bCut, SourceB)

	outCols := append(append([]string(nil), indexCols...), SourceA, SourceB, DifferenceCol, SimilarityCol)
	out, err := table.New(outCols...)
	if err != nil {
		return nil, err
	}

	type pivotRow struct {
		vals       []table.Value
		difference float64
		similarity float64
	}
	rows := make([]pivotRow, 0, len(order))
	for _, key := range order {
		e := entries[key]
		s1 := e.values[SourceA]
		s2 := e.values[SourceB]
		difference := s1 - s2
		similarity := 0.0
		if s1 != 0 {
			similarity = (1 - math.Abs(s1-s2)/s1) * 100
		}
		vals := append(append([]table.Value(nil), e.index...),
			table.Number(s1), table.Number(s2),
			table.Number(difference), table.Number(similarity))
		rows = append(rows, pivotRow{vals: vals, difference: difference, similarity: similarity})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].difference != rows[j].difference {
			return rows[i].difference > rows[j].difference
		}
		return rows[i].similarity < rows[j].similarity
	})
	for _, r := range rows {
		if err := out.AppendRow(r.vals...); err != nil {
			return nil, err
		}
	}
	return &Pivot{Table: out, GroupColumn: group}, nil
}

// Grouped reports whether a group dimension survived into the pivot.
func (p *Pivot) Grouped() bool { return p.GroupColumn != "" }

// Groups slices the pivot into one sub-table per distinct group value, in
// order of first appearance, with the group column removed. An ungrouped
// pivot yields nil.
func (p *Pivot) Groups() []GroupSlice {
	if !p.Grouped() {
		return nil
	}
	var keep []string
	for _, c := range p.Table.Columns() {
		if c != p.GroupColumn {
			keep = append(keep, c)
		}
	}
	var names []string
	rowsByName := map[string][]int{}
	for r := 0; r < p.Table.NumRows(); r++ {
		name := p.Table.Value(r, p.GroupColumn).String()
		if _, seen := rowsByName[name]; !seen {
			names = append(names, name)
		}
		rowsByName[name] = append(rowsByName[name], r)
	}
	out := make([]GroupSlice, 0, len(names))
	for _, name := range names {
		sub, err := p.Table.SelectRows(rowsByName[name]).Select(keep...)
		if err != nil {
			continue
		}
		out = append(out, GroupSlice{Name: name, Table: sub})
	}
	return out
}

// normalizeIDs rewrites the id column to its normalized key form and drops
// rows whose id is missing.
func normalizeIDs(t *table.Table, idCol string) *table.Table {
	var rows []int
	for r := 0; r < t.NumRows(); r++ {
		if _, ok := table.NormKey(t.Value(r, idCol)); ok {
			rows = append(rows, r)
		}
	}
	out := t.SelectRows(rows)
	for r := 0; r < out.NumRows(); r++ {
		k, _ := table.NormKey(out.Value(r, idCol))
		_ = out.Set(r, idCol, table.Text(k))
	}
	return out
}

// firstByID indexes the first row position per id value.
func firstByID(t *table.Table, idCol string) map[string]int {
	out := map[string]int{}
	for r := 0; r < t.NumRows(); r++ {
		id := t.Value(r, idCol).String()
		if _, seen := out[id]; !seen {
			out[id] = r
		}
	}
	return out
}
