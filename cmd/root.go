package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/tabrec-cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags (wired later to config/viper)
	cfgFile   string
	debug     bool
	outputDir string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "tabrec",
	Short: "tabrec: reconcile tabular exports and flag sustained anomalies",
	Long:  `tabrec aligns spreadsheet exports on a key, computes cell-level diffs, merges and pivots multiple sources for comparison, and flags sustained anomalies in per-entity time series.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tabrec/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory for result files (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("output-dir") && outputDir != "" {
		cfg.OutputDir = outputDir
	}
}

// activeConfig returns the loaded configuration, or built-in defaults when
// config loading failed earlier.
func activeConfig() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	return &cfgpkg.Global{
		OutputDir:    "outputs",
		Window:       7,
		Shift:        3,
		PctThreshold: 20,
		AbsThreshold: 60,
		RecentDays:   30,
	}
}

func debugf(format string, args ...any) {
	if debug {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
