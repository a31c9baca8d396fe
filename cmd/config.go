package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/tabrec-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set tabrec configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := activeConfig()
		fmt.Printf("output_dir: %s\n", c.OutputDir)
		if c.CSVDelimiter != "" {
			fmt.Printf("csv_delimiter: %s\n", c.CSVDelimiter)
		}
		if c.HeaderAnchor != "" {
			fmt.Printf("header_anchor: %s\n", c.HeaderAnchor)
		}
		if c.MaxRows > 0 {
			fmt.Printf("max_rows: %d\n", c.MaxRows)
		}
		fmt.Printf("window: %d\n", c.Window)
		fmt.Printf("shift: %d\n", c.Shift)
		fmt.Printf("pct_threshold: %g\n", c.PctThreshold)
		fmt.Printf("abs_threshold: %g\n", c.AbsThreshold)
		fmt.Printf("recent_days: %d\n", c.RecentDays)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "output_dir":
			cfg.OutputDir = val
		case "csv_delimiter":
			cfg.CSVDelimiter = val
		case "header_anchor":
			cfg.HeaderAnchor = val
		case "max_rows":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid max_rows: %s", val)
			}
			cfg.MaxRows = n
		case "window":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid window: %s", val)
			}
			cfg.Window = n
		case "shift":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid shift: %s", val)
			}
			cfg.Shift = n
		case "pct_threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid pct_threshold: %s", val)
			}
			cfg.PctThreshold = f
		case "abs_threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid abs_threshold: %s", val)
			}
			cfg.AbsThreshold = f
		case "recent_days":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid recent_days: %s", val)
			}
			cfg.RecentDays = n
		default:
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Printf("✓ Saved %s\n", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
