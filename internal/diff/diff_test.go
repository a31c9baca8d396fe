package diff

import (
	"testing"

	"github.com/KaramelBytes/tabrec-cli/internal/align"
	"github.com/KaramelBytes/tabrec-cli/internal/table"
)

func mkTable(t *testing.T, cols []string, rows ...[]table.Value) *table.Table {
	t.Helper()
	tab := table.MustNew(cols...)
	for _, r := range rows {
		if err := tab.AppendRow(r...); err != nil {
			t.Fatalf("append row: %v", err)
		}
	}
	return tab
}

func alignPair(t *testing.T, a, b *table.Table, key string, compareCols []string) *align.Result {
	t.Helper()
	res, err := align.Align(a, b, key, compareCols...)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	return res
}

func TestDiffTransitions(t *testing.T) {
	a := mkTable(t, []string{"ID", "Name", "Qty"},
		[]table.Value{table.Text("b"), table.Text("bob"), table.Number(1)},
		[]table.Value{table.Text("a"), table.Text("alice"), table.Number(2)},
	)
	b := mkTable(t, []string{"ID", "Name", "Qty"},
		[]table.Value{table.Text("a"), table.Text("alice"), table.Number(3)},
		[]table.Value{table.Text("b"), table.Text("bobby"), table.Number(1)},
	)
	compare := []string{"Name", "Qty"}

	res, err := Diff(alignPair(t, a, b, "ID", compare), compare)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("records: got %d, want 2", len(res.Records))
	}

	// Sorted alignment puts key "a" first.
	if got := res.Table.Value(0, "Qty").String(); got != "2 → 3" {
		t.Fatalf("row 0 Qty: got %q", got)
	}
	if got := res.Table.Value(1, "Name").String(); got != "bob → bobby" {
		t.Fatalf("row 1 Name: got %q", got)
	}
	// Unchanged cells keep A's value untouched.
	if got := res.Table.Value(0, "Name").String(); got != "alice" {
		t.Fatalf("row 0 Name: got %q", got)
	}
	if !res.RowChanged(0) || !res.RowChanged(1) {
		t.Fatalf("both rows should be marked changed")
	}
}

func TestDiffMissingBothSidesIsEqual(t *testing.T) {
	a := mkTable(t, []string{"ID", "Note"},
		[]table.Value{table.Text("a"), table.Missing()},
	)
	b := mkTable(t, []string{"ID", "Note"},
		[]table.Value{table.Text("a"), table.Missing()},
	)
	res, err := Diff(alignPair(t, a, b, "ID", []string{"Note"}), []string{"Note"})
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(res.Records) != 0 {
		t.Fatalf("missing vs missing must not be a change, got %d records", len(res.Records))
	}
}

func TestDiffMissingOneSide(t *testing.T) {
	a := mkTable(t, []string{"ID", "Note"},
		[]table.Value{table.Text("a"), table.Missing()},
	)
	b := mkTable(t, []string{"ID", "Note"},
		[]table.Value{table.Text("a"), table.Text("filled")},
	)
	res, err := Diff(alignPair(t, a, b, "ID", []string{"Note"}), []string{"Note"})
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("records: got %d, want 1", len(res.Records))
	}
	if got := res.Table.Value(0, "Note").String(); got != " → filled" {
		t.Fatalf("transition: got %q", got)
	}
}

func TestDiffSelfIsEmpty(t *testing.T) {
	a := mkTable(t, []string{"ID", "Name", "Qty"},
		[]table.Value{table.Text("a"), table.Text("alice"), table.Number(2)},
		[]table.Value{table.Text("b"), table.Text("bob"), table.Number(1)},
	)
	compare := []string{"Name", "Qty"}
	res, err := Diff(alignPair(t, a, a, "ID", compare), compare)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(res.Records) != 0 {
		t.Fatalf("self diff must report no changes, got %d", len(res.Records))
	}
	if res.FilteredTable().NumRows() != 0 {
		t.Fatalf("filtered table should be empty")
	}
}

func TestDiffSymmetricPositions(t *testing.T) {
	a := mkTable(t, []string{"ID", "Qty"},
		[]table.Value{table.Text("a"), table.Number(2)},
		[]table.Value{table.Text("b"), table.Number(5)},
	)
	b := mkTable(t, []string{"ID", "Qty"},
		[]table.Value{table.Text("a"), table.Number(3)},
		[]table.Value{table.Text("b"), table.Number(5)},
	)
	compare := []string{"Qty"}

	ab, err := Diff(alignPair(t, a, b, "ID", compare), compare)
	if err != nil {
		t.Fatalf("diff a/b: %v", err)
	}
	ba, err := Diff(alignPair(t, b, a, "ID", compare), compare)
	if err != nil {
		t.Fatalf("diff b/a: %v", err)
	}
	if len(ab.Records) != len(ba.Records) {
		t.Fatalf("change counts differ: %d vs %d", len(ab.Records), len(ba.Records))
	}
	for i := range ab.Records {
		if ab.Records[i].Row != ba.Records[i].Row || ab.Records[i].Column != ba.Records[i].Column {
			t.Fatalf("record %d position differs: %+v vs %+v", i, ab.Records[i], ba.Records[i])
		}
	}
}

func TestDiffFilteredTable(t *testing.T) {
	a := mkTable(t, []string{"ID", "Qty"},
		[]table.Value{table.Text("a"), table.Number(1)},
		[]table.Value{table.Text("b"), table.Number(2)},
		[]table.Value{table.Text("c"), table.Number(3)},
	)
	b := mkTable(t, []string{"ID", "Qty"},
		[]table.Value{table.Text("a"), table.Number(1)},
		[]table.Value{table.Text("b"), table.Number(99)},
		[]table.Value{table.Text("c"), table.Number(3)},
	)
	res, err := Diff(alignPair(t, a, b, "ID", []string{"Qty"}), []string{"Qty"})
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	filtered := res.FilteredTable()
	if filtered.NumRows() != 1 {
		t.Fatalf("filtered rows: got %d, want 1", filtered.NumRows())
	}
	if got := filtered.Value(0, "ID").String(); got != "b" {
		t.Fatalf("filtered row key: got %q", got)
	}
}
