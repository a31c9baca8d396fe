package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabrec-cli/internal/loader"
	"github.com/KaramelBytes/tabrec-cli/internal/table"
)

// loadTable reads a tabular file by extension. sheet and sheetIndex apply to
// workbook formats only.
func loadTable(path, sheet string, sheetIndex int) (*table.Table, error) {
	c := activeConfig()
	opt := loader.Options{
		Delimiter:    c.Delimiter(),
		HeaderAnchor: c.HeaderAnchor,
		MaxRows:      c.MaxRows,
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loader.LoadXLSX(path, sheet, sheetIndex, opt)
	case ".csv", ".tsv":
		return loader.LoadCSV(path, opt)
	}
	return nil, fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
}

// resultDir creates and returns <output-dir>/<subdir>/<name>.
func resultDir(subdir, name string) (string, error) {
	dir := filepath.Join(activeConfig().OutputDir, subdir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir output dir: %w", err)
	}
	return dir, nil
}

// stem strips directory and extension from a path.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// splitColumns parses repeated or comma-separated column flags.
func splitColumns(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
