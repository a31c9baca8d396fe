package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Output location for result files.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// Loader behavior
	CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	HeaderAnchor string `mapstructure:"header_anchor" yaml:"header_anchor"`
	MaxRows      int    `mapstructure:"max_rows" yaml:"max_rows"`

	// Anomaly detection defaults
	Window       int     `mapstructure:"window" yaml:"window"`
	Shift        int     `mapstructure:"shift" yaml:"shift"`
	PctThreshold float64 `mapstructure:"pct_threshold" yaml:"pct_threshold"`
	AbsThreshold float64 `mapstructure:"abs_threshold" yaml:"abs_threshold"`
	RecentDays   int     `mapstructure:"recent_days" yaml:"recent_days"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.tabrec/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".tabrec")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABREC")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("output_dir", "outputs")
	v.SetDefault("csv_delimiter", "")
	v.SetDefault("header_anchor", "")
	v.SetDefault("max_rows", 0)
	v.SetDefault("window", 7)
	v.SetDefault("shift", 3)
	v.SetDefault("pct_threshold", 20)
	v.SetDefault("abs_threshold", 60)
	v.SetDefault("recent_days", 30)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".tabrec")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Delimiter returns the configured CSV delimiter rune, or 0 for auto-detect.
func (c *Global) Delimiter() rune {
	for _, r := range c.CSVDelimiter {
		return r
	}
	return 0
}
