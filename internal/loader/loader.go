// Package loader turns spreadsheet exports (CSV, XLSX) into in-memory tables
// for the engine. It is boundary code: the engine itself never touches files.
package loader

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/tabrec-cli/internal/table"
)

// Options controls loading behavior.
type Options struct {
	// Delimiter for CSV. If 0, auto-detects among ',', ';', '\t'.
	Delimiter rune
	// HeaderAnchor, when set, locates the header row by scanning the first
	// rows for a cell with this exact trimmed value. Exports often carry
	// title banners above the real header.
	HeaderAnchor string
	// MaxRows limits data rows loaded; 0 means unlimited.
	MaxRows int
}

// headerScanLimit bounds how many leading rows the anchor search inspects.
const headerScanLimit = 20

// FindHeaderRow scans the leading rows for one containing the anchor value
// and returns its position. Falls back to 0 when the anchor is absent.
func FindHeaderRow(rows [][]string, anchor string) int {
	if anchor == "" {
		return 0
	}
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		for _, cell := range rows[i] {
			if strings.TrimSpace(cell) == anchor {
				return i
			}
		}
	}
	return 0
}

// fromRows builds a table from a header row plus raw string records. Short
// records are padded with missing cells; unnamed columns get positional
// names so the header stays unique.
func fromRows(header []string, records [][]string, maxRows int) (*table.Table, error) {
	cols := make([]string, len(header))
	seen := map[string]int{}
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "column_" + itoa(i+1)
		}
		if n := seen[name]; n > 0 {
			name = name + "_" + itoa(n+1)
		}
		seen[strings.TrimSpace(h)]++
		cols[i] = name
	}
	t, err := table.New(cols...)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if maxRows > 0 && t.NumRows() >= maxRows {
			break
		}
		vals := make([]table.Value, len(cols))
		for i := range cols {
			if i < len(rec) {
				vals[i] = table.Parse(rec[i])
			} else {
				vals[i] = table.Missing()
			}
		}
		if err := t.AppendRow(vals...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

var filenameDateFormats = []string{
	"20060102_1504",     // 20241218_0903
	"2006-01-02-150405", // 2024-12-18-090340
	"2006-01-02",        // 2024-12-18
}

// ExtractDate parses an export timestamp out of a filename, trying the
// naming conventions the exports use. Returns false when none match.
func ExtractDate(filename string) (time.Time, bool) {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for _, f := range filenameDateFormats {
		if t, err := time.Parse(f, stem); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
