package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/tabrec-cli/internal/anomaly"
	"github.com/KaramelBytes/tabrec-cli/internal/report"
	"github.com/spf13/cobra"
)

var (
	monEntityCol string
	monSeriesCol string
	monValueCol  string
	monDateCol   string
	monSheet     string

	monWindow     int
	monShift      int
	monPct        float64
	monAbs        float64
	monRecentDays int
	monNoAgg      bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor <file>",
	Short: "Flag sustained usage anomalies in per-entity time series",
	Long: `monitor aggregates usage per (entity, series, date), restricts to the recent
window, and scans each (entity, series) group chronologically. A row deviating
from its trailing-median baseline by both the percent and absolute thresholds
is a candidate; enough consecutive candidates confirm an anomaly and flag the
whole run, each row tagged increase or decrease against its own baseline.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if monEntityCol == "" || monSeriesCol == "" || monValueCol == "" || monDateCol == "" {
			return fmt.Errorf("--entity-column, --series-column, --value-column and --date-column are required")
		}
		c := activeConfig()
		detCfg := anomaly.Config{
			EntityColumn: monEntityCol,
			SeriesColumn: monSeriesCol,
			ValueColumn:  monValueCol,
			DateColumn:   monDateCol,
			Window:       pick(monWindow, c.Window),
			Shift:        pick(monShift, c.Shift),
			PctThreshold: pickF(monPct, c.PctThreshold),
			AbsThreshold: pickF(monAbs, c.AbsThreshold),
		}
		recentDays := pick(monRecentDays, c.RecentDays)

		t, err := loadTable(path, monSheet, 0)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		debugf("loaded %s: %d rows", path, t.NumRows())

		if !monNoAgg {
			if t, err = anomaly.AggregateDaily(t, detCfg); err != nil {
				return err
			}
		}
		if recentDays > 0 {
			if t, err = anomaly.FilterRecentDays(t, detCfg.DateColumn, recentDays); err != nil {
				return err
			}
		}

		annotated, err := anomaly.Detect(t, detCfg)
		if err != nil {
			return err
		}
		flagged, err := anomaly.SelectFlaggedGroups(annotated, detCfg)
		if err != nil {
			return err
		}
		summary, err := anomaly.Summarize(flagged, detCfg)
		if err != nil {
			return err
		}
		fmt.Printf("%d flagged (entity, series) pairs across %d entities\n", summary.FlaggedPairs, summary.Entities)

		dir, err := resultDir("anomaly_detection", stem(path))
		if err != nil {
			return err
		}
		if err := report.WriteCSV(annotated, filepath.Join(dir, "annotated.csv")); err != nil {
			return err
		}
		if err := report.WriteCSV(flagged, filepath.Join(dir, "flagged_groups.csv")); err != nil {
			return err
		}

		rep := report.New("monitor", path)
		rep.AddDetail("Window", fmt.Sprintf("%d", detCfg.Window))
		rep.AddDetail("Shift", fmt.Sprintf("%d", detCfg.Shift))
		rep.AddDetail("Percent threshold", fmt.Sprintf("%g", detCfg.PctThreshold))
		rep.AddDetail("Absolute threshold", fmt.Sprintf("%g", detCfg.AbsThreshold))
		if summary.Start != "" {
			rep.AddDetail("Date range", fmt.Sprintf("%s to %s", summary.Start, summary.End))
		}
		rep.AddDetail("Entities", fmt.Sprintf("%d", summary.Entities))
		rep.AddDetail("Flagged pairs", fmt.Sprintf("%d", summary.FlaggedPairs))
		rep.AddDetail("Services trending up", fmt.Sprintf("%d", summary.IncreaseServices))
		rep.AddDetail("Services trending down", fmt.Sprintf("%d", summary.DecreaseServices))
		if err := rep.Write(filepath.Join(dir, "info.md")); err != nil {
			return err
		}
		fmt.Printf("✓ Results written to %s\n", dir)
		return nil
	},
}

func pick(flag, fallback int) int {
	if flag > 0 {
		return flag
	}
	return fallback
}

func pickF(flag, fallback float64) float64 {
	if flag > 0 {
		return flag
	}
	return fallback
}

func init() {
	monitorCmd.Flags().StringVar(&monEntityCol, "entity-column", "", "entity (company) column")
	monitorCmd.Flags().StringVar(&monSeriesCol, "series-column", "", "series (service) column")
	monitorCmd.Flags().StringVar(&monValueCol, "value-column", "", "usage value column")
	monitorCmd.Flags().StringVar(&monDateCol, "date-column", "", "date column")
	monitorCmd.Flags().StringVar(&monSheet, "sheet", "", "worksheet name (xlsx)")
	monitorCmd.Flags().IntVar(&monWindow, "window", 0, "trailing baseline window in rows (overrides config)")
	monitorCmd.Flags().IntVar(&monShift, "shift", 0, "consecutive candidates needed to confirm (overrides config)")
	monitorCmd.Flags().Float64Var(&monPct, "pct-threshold", 0, "percent deviation threshold (overrides config)")
	monitorCmd.Flags().Float64Var(&monAbs, "abs-threshold", 0, "absolute deviation threshold (overrides config)")
	monitorCmd.Flags().IntVar(&monRecentDays, "recent-days", 0, "trailing days to keep before detection (overrides config)")
	monitorCmd.Flags().BoolVar(&monNoAgg, "no-aggregate", false, "skip the per-day aggregation step")
	rootCmd.AddCommand(monitorCmd)
}
