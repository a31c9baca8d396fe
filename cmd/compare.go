package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/tabrec-cli/internal/merge"
	"github.com/KaramelBytes/tabrec-cli/internal/report"
	"github.com/spf13/cobra"
)

var (
	cmpIDColA   string
	cmpValColA  string
	cmpIDColB   string
	cmpValColB  string
	cmpExtra    []string
	cmpGroupCol string
	cmpSheetA   string
	cmpSheetB   string
)

var compareCmd = &cobra.Command{
	Use:   "compare <fileA> <fileB>",
	Short: "Pivot two forecast sources into a wide comparison with similarity scores",
	Long: `compare normalizes both files on an entity id, stacks them, and pivots to one
row per entity with one value column per source. Derived columns: Difference
(source1 - source2) and Similarity% relative to source1. With --group-column,
one result file per group value is written alongside the full result.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pathA, pathB := args[0], args[1]
		if cmpIDColA == "" || cmpValColA == "" {
			return fmt.Errorf("--id-column and --value-column are required")
		}

		a, err := loadTable(pathA, cmpSheetA, 0)
		if err != nil {
			return fmt.Errorf("load %s: %w", pathA, err)
		}
		b, err := loadTable(pathB, cmpSheetB, 0)
		if err != nil {
			return fmt.Errorf("load %s: %w", pathB, err)
		}

		pivot, err := merge.CompareForecasts(a, b, merge.CompareOptions{
			IDColumnA:    cmpIDColA,
			ValueColumnA: cmpValColA,
			IDColumnB:    cmpIDColB,
			ValueColumnB: cmpValColB,
			ExtraColumns: splitColumns(cmpExtra),
			GroupColumn:  cmpGroupCol,
		})
		if err != nil {
			return err
		}
		if cmpGroupCol != "" && !pivot.Grouped() {
			fmt.Printf("⚠ Column %q missing from one or both files; proceeding without grouping\n", cmpGroupCol)
		}

		dir, err := resultDir("forecast_comparisons", fmt.Sprintf("comparison_%s_vs_%s", stem(pathA), stem(pathB)))
		if err != nil {
			return err
		}
		if err := report.WriteCSV(pivot.Table, filepath.Join(dir, "all_data.csv")); err != nil {
			return err
		}
		for _, g := range pivot.Groups() {
			name := report.CleanSheetName(g.Name)
			if name == "" {
				name = "ungrouped"
			}
			if err := report.WriteCSV(g.Table, filepath.Join(dir, name+".csv")); err != nil {
				return err
			}
		}

		rep := report.New("compare", pathA, pathB)
		rep.AddDetail("ID column", cmpIDColA)
		rep.AddDetail("Value column", cmpValColA)
		if pivot.Grouped() {
			rep.AddDetail("Group column", pivot.GroupColumn)
		}
		rep.AddDetail("Entities", fmt.Sprintf("%d", pivot.Table.NumRows()))
		if err := rep.Write(filepath.Join(dir, "info.md")); err != nil {
			return err
		}
		fmt.Printf("✓ Comparison written to %s\n", dir)
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&cmpIDColA, "id-column", "", "entity id column in fileA")
	compareCmd.Flags().StringVar(&cmpValColA, "value-column", "", "forecast value column in fileA")
	compareCmd.Flags().StringVar(&cmpIDColB, "id-column-b", "", "entity id column in fileB (default: same as fileA)")
	compareCmd.Flags().StringVar(&cmpValColB, "value-column-b", "", "forecast value column in fileB (default: same as fileA)")
	compareCmd.Flags().StringSliceVar(&cmpExtra, "extra-columns", nil, "context columns carried from fileA")
	compareCmd.Flags().StringVar(&cmpGroupCol, "group-column", "", "optional grouping column present in both files")
	compareCmd.Flags().StringVar(&cmpSheetA, "sheet-a", "", "worksheet name in fileA (xlsx)")
	compareCmd.Flags().StringVar(&cmpSheetB, "sheet-b", "", "worksheet name in fileB (xlsx)")
	rootCmd.AddCommand(compareCmd)
}
