package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/cindex/internal/cindex"
	cfgpkg "github.com/KaramelBytes/cindex/internal/config"
	"github.com/KaramelBytes/cindex/internal/report"
	"github.com/KaramelBytes/cindex/internal/utils"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set cindex configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "positive_threshold: %g\n", cfg.PositiveThreshold)
		fmt.Fprintf(out, "negative_threshold: %g\n", cfg.NegativeThreshold)
		fmt.Fprintf(out, "rounding_digits: %d\n", cfg.RoundingDigits)
		fmt.Fprintf(out, "round_seed: %t\n", cfg.RoundSeed)
		fmt.Fprintf(out, "tie_policy: %s\n", cfg.TiePolicy)
		fmt.Fprintf(out, "workers: %d\n", cfg.Workers)
		if cfg.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", cfg.Delimiter)
		}
		fmt.Fprintf(out, "decimal_separator: %s\n", cfg.DecimalSeparator)
		fmt.Fprintf(out, "std_tolerance: %.3f\n", cfg.StdTolerance)
		fmt.Fprintf(out, "output_format: %s\n", cfg.OutputFormat)
		fmt.Fprintf(out, "results_dir: %s\n", cfg.ResultsDir)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
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
		case "positive_threshold", "negative_threshold", "std_tolerance":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for %s: %w", key, err)
			}
			switch key {
			case "positive_threshold":
				cfg.PositiveThreshold = f
			case "negative_threshold":
				cfg.NegativeThreshold = f
			default:
				if f < 0 {
					return fmt.Errorf("invalid float for std_tolerance: %v", val)
				}
				cfg.StdTolerance = f
			}
		case "rounding_digits":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for rounding_digits: %w", err)
			}
			cfg.RoundingDigits = i
		case "workers":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for workers: %v", val)
			}
			cfg.Workers = i
		case "round_seed":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for round_seed: %w", err)
			}
			cfg.RoundSeed = b
		case "tie_policy":
			p, err := cindex.ParseTiePolicy(val)
			if err != nil {
				return err
			}
			cfg.TiePolicy = p.String()
		case "output_format":
			f, err := report.ParseFormat(val)
			if err != nil {
				return err
			}
			cfg.OutputFormat = string(f)
		case "delimiter":
			if _, err := tableOptions(val, ""); err != nil {
				return err
			}
			cfg.Delimiter = val
		case "decimal_separator":
			if _, err := tableOptions("", val); err != nil {
				return err
			}
			cfg.DecimalSeparator = val
		case "results_dir":
			p, err := utils.ExpandHome(val)
			if err != nil {
				return err
			}
			cfg.ResultsDir = p
		case "log_level":
			cfg.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
