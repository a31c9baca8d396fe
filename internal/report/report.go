// Package report exports engine results: CSV tables plus a plain-text run
// summary for traceability. Styling is deliberately out of scope.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/tabrec-cli/internal/table"
	"github.com/google/uuid"
)

// Report accumulates run metadata and renders it in a compact sectioned form.
type Report struct {
	Operation string
	RunID     string
	Sources   []string

	details [][2]string
	notes   []string
}

// New starts a report for one engine run over the given source files.
func New(operation string, sources ...string) *Report {
	return &Report{
		Operation: operation,
		RunID:     uuid.NewString(),
		Sources:   append([]string(nil), sources...),
	}
}

// AddDetail appends an ordered key/value pair to the run summary.
func (r *Report) AddDetail(key, value string) {
	r.details = append(r.details, [2]string{key, value})
}

// AddNote appends a free-form note line.
func (r *Report) AddNote(note string) {
	r.notes = append(r.notes, note)
}

// Markdown renders the run summary.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[RUN]\n")
	b.WriteString(fmt.Sprintf("Operation: %s\n", r.Operation))
	b.WriteString(fmt.Sprintf("Run ID: %s\n", r.RunID))
	for i, s := range r.Sources {
		b.WriteString(fmt.Sprintf("Source %d: %s\n", i+1, s))
	}
	if len(r.details) > 0 {
		b.WriteString("\n[DETAILS]\n")
		for _, d := range r.details {
			b.WriteString(fmt.Sprintf("- %s: %s\n", d[0], d[1]))
		}
	}
	if len(r.notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range r.notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Write persists the rendered summary.
func (r *Report) Write(path string) error {
	return SafeWriteFile(path, []byte(r.Markdown()))
}

// WriteCSV exports a table as CSV, header first, using each cell's display
// form (missing cells export as empty fields). The write is atomic.
func WriteCSV(t *table.Table, path string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, t.NumCols())
	for r := 0; r < t.NumRows(); r++ {
		for c := 0; c < t.NumCols(); c++ {
			rec[c] = t.ValueAt(r, c).String()
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return SafeWriteFile(path, buf.Bytes())
}

// SafeWriteFile writes data to a temp file and atomically renames it into
// place.
func SafeWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// CleanSheetName sanitizes a group value for use in an export file or sheet
// name: path and spreadsheet-hostile characters become underscores and the
// result is capped at 31 characters, the sheet-name limit.
func CleanSheetName(s string) string {
	repl := strings.NewReplacer("/", "_", "\\", "_", "?", "_", "*", "_", "[", "_", "]", "_", ":", "_")
	s = repl.Replace(s)
	if len(s) > 31 {
		s = s[:31]
	}
	return s
}
