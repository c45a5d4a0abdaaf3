package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/cindex/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "cindex",
	Short: "cindex: build composite indices that separate two groups of observations",
	Long: `cindex greedily combines Z-score standardized variables into a composite index
that maximizes the separation between the observations where a conditioning
variable is high and those where it is low.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	initLogging()
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.cindex/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func initLogging() {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)
	log.SetReportCaller(false)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:          false,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to flag defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
	if debug {
		return
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else if cfg.LogLevel != "" {
		log.Warnf("ignoring log_level %q: %v", cfg.LogLevel, err)
	}
}

// effective returns the loaded config, or the built-in defaults when loading failed.
func effective() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	dir, err := cfgpkg.DefaultResultsDir()
	if err != nil {
		log.Debugf("no default results dir: %v", err)
	}
	return &cfgpkg.Global{
		ResultsDir:        dir,
		PositiveThreshold: 1,
		NegativeThreshold: -1,
		RoundingDigits:    4,
		TiePolicy:         "drop",
		Workers:           1,
		DecimalSeparator:  ".",
		StdTolerance:      0.05,
		OutputFormat:      "md",
	}
}
