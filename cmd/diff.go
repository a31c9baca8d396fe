package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/tabrec-cli/internal/align"
	"github.com/KaramelBytes/tabrec-cli/internal/diff"
	"github.com/KaramelBytes/tabrec-cli/internal/report"
	"github.com/KaramelBytes/tabrec-cli/internal/table"
	"github.com/spf13/cobra"
)

var (
	diffKey     string
	diffColumns []string
	diffSheetA  string
	diffSheetB  string
)

var diffCmd = &cobra.Command{
	Use:   "diff <fileA> <fileB>",
	Short: "Align two exports on a key and report cell-level changes",
	Long: `diff intersects the two files on their shared columns and shared key values,
sorts both sides into the same row order, and compares the chosen columns cell
by cell. Changed cells are written as "old → new" transitions. Output is the
full aligned result, a filtered view of rows with at least one change, and a
record of every changed cell.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pathA, pathB := args[0], args[1]
		compareCols := splitColumns(diffColumns)
		if diffKey == "" {
			return fmt.Errorf("--key is required")
		}
		if len(compareCols) == 0 {
			return fmt.Errorf("--columns is required")
		}

		a, err := loadTable(pathA, diffSheetA, 0)
		if err != nil {
			return fmt.Errorf("load %s: %w", pathA, err)
		}
		b, err := loadTable(pathB, diffSheetB, 0)
		if err != nil {
			return fmt.Errorf("load %s: %w", pathB, err)
		}

		aligned, err := align.Align(a, b, diffKey, compareCols...)
		if err != nil {
			return err
		}
		debugf("aligned %d shared rows", aligned.A.NumRows())

		res, err := diff.Diff(aligned, compareCols)
		if err != nil {
			return err
		}
		fmt.Printf("%d shared rows, %d cell changes\n", aligned.A.NumRows(), len(res.Records))

		dir, err := resultDir("compare_changes", fmt.Sprintf("comparison_%s_vs_%s", stem(pathA), stem(pathB)))
		if err != nil {
			return err
		}
		if err := report.WriteCSV(res.Table, filepath.Join(dir, "full_result.csv")); err != nil {
			return err
		}
		if err := report.WriteCSV(res.FilteredTable(), filepath.Join(dir, "filtered_result.csv")); err != nil {
			return err
		}
		if err := report.WriteCSV(changeTable(res), filepath.Join(dir, "changes.csv")); err != nil {
			return err
		}

		rep := report.New("diff", pathA, pathB)
		rep.AddDetail("Key column", diffKey)
		rep.AddDetail("Compared columns", fmt.Sprintf("%v", compareCols))
		rep.AddDetail("Shared rows", fmt.Sprintf("%d", aligned.A.NumRows()))
		rep.AddDetail("Cell changes", fmt.Sprintf("%d", len(res.Records)))
		rep.AddNote(`changed cells read "old → new"`)
		if err := rep.Write(filepath.Join(dir, "info.md")); err != nil {
			return err
		}
		fmt.Printf("✓ Results written to %s\n", dir)
		return nil
	},
}

// changeTable flattens diff records into an exportable table.
func changeTable(res *diff.Result) *table.Table {
	t := table.MustNew("row", "column", "old", "new")
	for _, rec := range res.Records {
		_ = t.AppendRow(
			table.Number(float64(rec.Row)),
			table.Text(rec.Column),
			rec.Old,
			rec.New,
		)
	}
	return t
}

func init() {
	diffCmd.Flags().StringVar(&diffKey, "key", "", "unique key column shared by both files")
	diffCmd.Flags().StringSliceVar(&diffColumns, "columns", nil, "columns to compare (comma-separated or repeated)")
	diffCmd.Flags().StringVar(&diffSheetA, "sheet-a", "", "worksheet name in fileA (xlsx)")
	diffCmd.Flags().StringVar(&diffSheetB, "sheet-b", "", "worksheet name in fileB (xlsx)")
	rootCmd.AddCommand(diffCmd)
}
