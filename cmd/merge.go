package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabrec-cli/internal/merge"
	"github.com/KaramelBytes/tabrec-cli/internal/report"
	"github.com/spf13/cobra"
)

var (
	mergeKeyColumns []string
	mergeSheets     []string
	mergeSelect     []string
)

var mergeCmd = &cobra.Command{
	Use:   "merge <files...>",
	Short: "Outer-join two or more exports on a shared key",
	Long: `merge loads each file and full-outer-joins them in order on the declared key
columns. The key is normalized to a trimmed string and lands in the output as
"merge_key". Column names colliding across sources are suffixed with the
source's join position ("_second", "_third", ...). A file missing its declared
key column aborts the whole merge.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := splitColumns(mergeKeyColumns)
		if len(keys) == 0 {
			return fmt.Errorf("--key-columns is required")
		}
		if len(keys) == 1 {
			// One key name applies to every file.
			for len(keys) < len(args) {
				keys = append(keys, keys[0])
			}
		}
		if len(keys) != len(args) {
			return fmt.Errorf("got %d key columns for %d files", len(keys), len(args))
		}

		inputs := make([]merge.Input, len(args))
		for i, path := range args {
			sheet := ""
			if i < len(mergeSheets) {
				sheet = mergeSheets[i]
			}
			t, err := loadTable(path, sheet, 0)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			debugf("loaded %s: %d rows", path, t.NumRows())
			inputs[i] = merge.Input{Table: t, KeyColumn: keys[i]}
		}

		merged, err := merge.Merge(inputs)
		if err != nil {
			return err
		}

		if selected := splitColumns(mergeSelect); len(selected) > 0 {
			var valid []string
			for _, c := range selected {
				if merged.HasColumn(c) {
					valid = append(valid, c)
				}
			}
			if len(valid) == 0 {
				return fmt.Errorf("none of the selected columns exist in the merged data")
			}
			if merged, err = merged.Select(valid...); err != nil {
				return err
			}
		}

		dir, err := resultDir("merged_files", "merged_"+joinStems(args))
		if err != nil {
			return err
		}
		if err := report.WriteCSV(merged, filepath.Join(dir, "data.csv")); err != nil {
			return err
		}

		rep := report.New("merge", args...)
		for i, k := range keys {
			rep.AddDetail(fmt.Sprintf("Key column %d", i+1), k)
		}
		rep.AddDetail("Rows", fmt.Sprintf("%d", merged.NumRows()))
		rep.AddDetail("Columns", fmt.Sprintf("%d", merged.NumCols()))
		if err := rep.Write(filepath.Join(dir, "info.md")); err != nil {
			return err
		}
		fmt.Printf("✓ Merged %d files into %s\n", len(args), dir)
		return nil
	},
}

// joinStems builds a compact output name from the first few input files.
func joinStems(paths []string) string {
	limit := 3
	var parts []string
	for i, p := range paths {
		if i == limit {
			parts = append(parts, "and_others")
			break
		}
		parts = append(parts, stem(p))
	}
	return strings.Join(parts, "_")
}

func init() {
	mergeCmd.Flags().StringSliceVar(&mergeKeyColumns, "key-columns", nil, "merge key column per file (one value applies to all)")
	mergeCmd.Flags().StringSliceVar(&mergeSheets, "sheets", nil, "worksheet name per file (xlsx)")
	mergeCmd.Flags().StringSliceVar(&mergeSelect, "select", nil, "columns to keep in the output (default all)")
	rootCmd.AddCommand(mergeCmd)
}
