package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const dirName = ".cindex"

// Global configuration structure.
type Global struct {
	// Group thresholds on the conditioning variable.
	PositiveThreshold float64 `mapstructure:"positive_threshold" yaml:"positive_threshold"`
	NegativeThreshold float64 `mapstructure:"negative_threshold" yaml:"negative_threshold"`

	// Composer behavior
	RoundingDigits int    `mapstructure:"rounding_digits" yaml:"rounding_digits"`
	RoundSeed      bool   `mapstructure:"round_seed" yaml:"round_seed"`
	TiePolicy      string `mapstructure:"tie_policy" yaml:"tie_policy"`
	Workers        int    `mapstructure:"workers" yaml:"workers"`

	// Input parsing
	Delimiter        string  `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator string  `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	StdTolerance     float64 `mapstructure:"std_tolerance" yaml:"std_tolerance"`

	// Output
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	ResultsDir   string `mapstructure:"results_dir" yaml:"results_dir"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.cindex/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, dirName)
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
// Precedence: env > config file > defaults; command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CINDEX")
	v.AutomaticEnv()

	v.SetDefault("positive_threshold", 1.0)
	v.SetDefault("negative_threshold", -1.0)
	v.SetDefault("rounding_digits", 4)
	v.SetDefault("round_seed", false)
	v.SetDefault("tie_policy", "drop")
	v.SetDefault("workers", 1)
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", ".")
	v.SetDefault("std_tolerance", 0.05)
	v.SetDefault("output_format", "md")
	v.SetDefault("results_dir", "")
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ResultsDir == "" {
		dir, err := DefaultResultsDir()
		if err != nil {
			return nil, err
		}
		c.ResultsDir = dir
	}
	return &c, nil
}

// DefaultResultsDir is ~/.cindex/results.
func DefaultResultsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "results"), nil
}
