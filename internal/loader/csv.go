package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/tabrec-cli/internal/table"
)

// LoadCSV reads a CSV/TSV file into a table. Empty cells load as missing;
// cells that parse as numbers load as numbers.
func LoadCSV(path string, opt Options) (*table.Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, b)
	}
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	var raw [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(raw)+1, err)
		}
		raw = append(raw, append([]string(nil), rec...))
	}
	if len(raw) == 0 {
		return table.New()
	}

	headerRow := FindHeaderRow(raw, opt.HeaderAnchor)
	return fromRows(raw[headerRow], raw[headerRow+1:], opt.MaxRows)
}

// sniffDelimiter picks the candidate delimiter (',', ';', '\t') occurring
// most often in the first line. The .tsv extension forces tab.
func sniffDelimiter(path string, data []byte) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []byte{';', '\t'} {
		if n := bytes.Count(line, []byte{c}); n > bestCount {
			best, bestCount = rune(c), n
		}
	}
	return best
}
