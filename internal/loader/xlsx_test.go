package loader

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabrec-cli/internal/table"
)

// writeXLSX assembles a minimal single-package workbook the way real
// producers lay it out: workbook part, relationships, shared strings, and
// one worksheet per entry.
func writeXLSX(t *testing.T, dir string, sheets map[string]string, sharedStrings []string) string {
	t.Helper()

	var names, defs, rels []string
	i := 0
	for name := range sheets {
		i++
		rid := "rId" + itoa(i)
		names = append(names, name)
		defs = append(defs, `<sheet name="`+name+`" sheetId="`+itoa(i)+`" r:id="`+rid+`"/>`)
		rels = append(rels, `<Relationship Id="`+rid+`" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet`+itoa(i)+`.xml"/>`)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	add := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}

	add("xl/workbook.xml",
		`<?xml version="1.0"?><workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>`+
			strings.Join(defs, "")+`</sheets></workbook>`)
	add("xl/_rels/workbook.xml.rels",
		`<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
			strings.Join(rels, "")+`</Relationships>`)

	if len(sharedStrings) > 0 {
		var sst strings.Builder
		sst.WriteString(`<?xml version="1.0"?><sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">`)
		for _, s := range sharedStrings {
			sst.WriteString("<si><t>" + s + "</t></si>")
		}
		sst.WriteString("</sst>")
		add("xl/sharedStrings.xml", sst.String())
	}

	for i, name := range names {
		add("xl/worksheets/sheet"+itoa(i+1)+".xml", sheets[name])
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	p := filepath.Join(dir, "book.xlsx")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return p
}

const sheetData = `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>3</v></c></row>
<row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>42</v></c></row>
<row r="3"><c r="A3" t="inlineStr"><is><t>inline</t></is></c><c r="C3"><v>7</v></c></row>
</sheetData>
</worksheet>`

func TestLoadXLSX(t *testing.T) {
	p := writeXLSX(t, t.TempDir(),
		map[string]string{"Data": sheetData},
		[]string{"ID", "Qty", "abc", "Extra"},
	)

	tab, err := LoadXLSX(p, "Data", 0, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cols := tab.Columns()
	if len(cols) != 3 || cols[0] != "ID" || cols[2] != "Extra" {
		t.Fatalf("columns: got %v", cols)
	}
	if got := tab.Value(0, "ID").String(); got != "abc" {
		t.Fatalf("shared string cell: got %q", got)
	}
	if v := tab.Value(0, "Qty"); v.Kind() != table.KindNumber || v.Float() != 42 {
		t.Fatalf("numeric cell: got %v", v)
	}
	// Row 3 skips column B entirely; the sparse reference layout must still
	// land C3 in the third column.
	if got := tab.Value(1, "ID").String(); got != "inline" {
		t.Fatalf("inline string cell: got %q", got)
	}
	if !tab.Value(1, "Qty").IsMissing() {
		t.Fatalf("absent cell should load as missing")
	}
	if got := tab.Value(1, "Extra").Float(); got != 7 {
		t.Fatalf("sparse cell: got %v", got)
	}
}

func TestLoadXLSXSheetByIndex(t *testing.T) {
	p := writeXLSX(t, t.TempDir(),
		map[string]string{"Only": sheetData},
		[]string{"ID", "Qty", "abc", "Extra"},
	)
	tab, err := LoadXLSX(p, "", 1, Options{})
	if err != nil {
		t.Fatalf("load by index: %v", err)
	}
	if tab.NumRows() != 2 {
		t.Fatalf("rows: got %d, want 2", tab.NumRows())
	}
}

func TestLoadXLSXUnknownSheet(t *testing.T) {
	p := writeXLSX(t, t.TempDir(),
		map[string]string{"Data": sheetData},
		[]string{"ID", "Qty", "abc", "Extra"},
	)
	_, err := LoadXLSX(p, "Nope", 0, Options{})
	if err == nil {
		t.Fatalf("expected error for unknown sheet")
	}
	if !strings.Contains(err.Error(), "Data") {
		t.Fatalf("error should list available sheets, got: %v", err)
	}
}

func TestColIndexFromRef(t *testing.T) {
	cases := map[string]int{
		"A1": 0, "B12": 1, "Z3": 25, "AA7": 26, "AB1": 27,
	}
	for ref, want := range cases {
		if got := colIndexFromRef(ref); got != want {
			t.Errorf("colIndexFromRef(%q): got %d, want %d", ref, got, want)
		}
	}
}
