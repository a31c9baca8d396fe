package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/tabrec-cli/internal/table"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadCSV(t *testing.T) {
	p := writeFile(t, t.TempDir(), "data.csv",
		"ID,Name,Qty\na,alice,2\nb,bob,\n")

	tab, err := LoadCSV(p, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := tab.Columns(); len(got) != 3 || got[0] != "ID" {
		t.Fatalf("columns: got %v", got)
	}
	if tab.NumRows() != 2 {
		t.Fatalf("rows: got %d, want 2", tab.NumRows())
	}
	if v := tab.Value(0, "Qty"); v.Kind() != table.KindNumber || v.Float() != 2 {
		t.Fatalf("numeric cell: got kind %v value %v", v.Kind(), v)
	}
	if !tab.Value(1, "Qty").IsMissing() {
		t.Fatalf("empty cell should load as missing")
	}
}

func TestLoadCSVHeaderAnchor(t *testing.T) {
	p := writeFile(t, t.TempDir(), "export.csv",
		"Monthly Export,,\nGenerated 2024-01-05,,\nID,Name,Qty\na,alice,2\n")

	tab, err := LoadCSV(p, Options{HeaderAnchor: "ID"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := tab.Columns()[0]; got != "ID" {
		t.Fatalf("banner rows should be skipped, first column %q", got)
	}
	if tab.NumRows() != 1 {
		t.Fatalf("rows: got %d, want 1", tab.NumRows())
	}
}

func TestLoadTSV(t *testing.T) {
	p := writeFile(t, t.TempDir(), "data.tsv", "ID\tQty\na\t5\n")

	tab, err := LoadCSV(p, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tab.NumCols() != 2 || tab.Value(0, "Qty").Float() != 5 {
		t.Fatalf("tab-delimited file misparsed: %v", tab.Columns())
	}
}

func TestLoadCSVSniffsSemicolon(t *testing.T) {
	p := writeFile(t, t.TempDir(), "data.csv", "ID;Qty\na;5\n")

	tab, err := LoadCSV(p, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tab.NumCols() != 2 || tab.Value(0, "Qty").Float() != 5 {
		t.Fatalf("semicolon file misparsed: %v", tab.Columns())
	}
}

func TestLoadCSVMaxRows(t *testing.T) {
	p := writeFile(t, t.TempDir(), "data.csv", "ID\n1\n2\n3\n")

	tab, err := LoadCSV(p, Options{MaxRows: 2})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tab.NumRows() != 2 {
		t.Fatalf("rows: got %d, want 2", tab.NumRows())
	}
}

func TestFindHeaderRow(t *testing.T) {
	rows := [][]string{
		{"Report", ""},
		{"", " ID ", "Name"},
		{"a", "b"},
	}
	if got := FindHeaderRow(rows, "ID"); got != 1 {
		t.Fatalf("anchored: got %d, want 1", got)
	}
	if got := FindHeaderRow(rows, "Nope"); got != 0 {
		t.Fatalf("absent anchor falls back to 0, got %d", got)
	}
	if got := FindHeaderRow(rows, ""); got != 0 {
		t.Fatalf("empty anchor: got %d, want 0", got)
	}
}

func TestFromRowsNaming(t *testing.T) {
	tab, err := fromRows(
		[]string{"ID", "", "ID"},
		[][]string{{"a", "x", "b"}, {"c"}},
		0,
	)
	if err != nil {
		t.Fatalf("fromRows: %v", err)
	}
	cols := tab.Columns()
	if cols[0] != "ID" || cols[1] != "column_2" || cols[2] != "ID_2" {
		t.Fatalf("columns: got %v", cols)
	}
	// Short records pad with missing cells.
	if !tab.Value(1, "ID_2").IsMissing() {
		t.Fatalf("short record should pad with missing")
	}
}

func TestExtractDate(t *testing.T) {
	cases := []struct {
		name string
		want string
		ok   bool
	}{
		{"20241218_0903.xlsx", "2024-12-18", true},
		{"2024-12-18-090340.csv", "2024-12-18", true},
		{"2024-12-18.csv", "2024-12-18", true},
		{"report.csv", "", false},
	}
	for _, tc := range cases {
		d, ok := ExtractDate(tc.name)
		if ok != tc.ok {
			t.Errorf("%s: ok=%v, want %v", tc.name, ok, tc.ok)
			continue
		}
		if ok && d.Format("2006-01-02") != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, d.Format("2006-01-02"), tc.want)
		}
	}
}
