package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/cindex/internal/cindex"
	"github.com/KaramelBytes/cindex/internal/dataset"
	"github.com/KaramelBytes/cindex/internal/report"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	runCondColumn  string
	runPosThr      float64
	runNegThr      float64
	runRounding    int
	runRoundSeed   bool
	runTiePolicy   string
	runWorkers     int
	runVerbose     bool
	runPlot        bool
	runOutputPath  string
	runFormat      string
	runStandardize bool
	runSave        bool
	runDelimiter   string
	runDecimal     string
)

var runCmd = &cobra.Command{
	Use:   "run <variables.csv> [conditional.csv]",
	Short: "Compose the C-index from every variable and report the best one",
	Long: `Loads a table of standardized variables (one column per variable, one row per
observation) and a conditioning variable, either as a separate file or as a
column of the table (--condition-column). Observations above --pos-threshold
form the positive group, those below --neg-threshold the negative group.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && runCondColumn == "" {
			return fmt.Errorf("no conditioning variable: pass a second file or --condition-column")
		}
		c := effective()
		fl := cmd.Flags()
		posThr, negThr := c.PositiveThreshold, c.NegativeThreshold
		if fl.Changed("pos-threshold") {
			posThr = runPosThr
		}
		if fl.Changed("neg-threshold") {
			negThr = runNegThr
		}
		digits, roundSeed, workers := c.RoundingDigits, c.RoundSeed, c.Workers
		if fl.Changed("rounding") {
			digits = runRounding
		}
		if fl.Changed("round-seed") {
			roundSeed = runRoundSeed
		}
		if fl.Changed("workers") {
			workers = runWorkers
		}
		tieName := c.TiePolicy
		if fl.Changed("tie-policy") {
			tieName = runTiePolicy
		}
		tie, err := cindex.ParseTiePolicy(tieName)
		if err != nil {
			return err
		}
		formatName := c.OutputFormat
		if fl.Changed("format") {
			formatName = runFormat
		}
		format, err := report.ParseFormat(formatName)
		if err != nil {
			return err
		}
		if !fl.Changed("format") && runOutputPath != "" {
			format = report.FormatFromPath(runOutputPath)
		}

		opt, err := tableOptions(runDelimiter, runDecimal)
		if err != nil {
			return err
		}
		opt.ConditionColumn = runCondColumn
		tbl, err := dataset.LoadTable(args[0], opt)
		if err != nil {
			return err
		}
		cond := tbl.Condition
		if len(args) == 2 {
			if runCondColumn != "" {
				log.Warnf("--condition-column %s ignored: using %s", runCondColumn, args[1])
			}
			copt := opt
			copt.ConditionColumn = ""
			if cond, err = dataset.LoadCondition(args[1], copt); err != nil {
				return err
			}
		}
		features := tbl.Features
		if runStandardize {
			features = dataset.Standardize(features)
			log.Debugf("standardized %d variables", features.M())
		}
		for _, w := range dataset.Describe(tbl.Name, features, c.StdTolerance).Warnings {
			log.Warn(w)
		}
		groups, err := dataset.Split(cond, features.N(), posThr, negThr)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"observations": features.N(),
			"variables":    features.M(),
			"positive":     len(groups.Positive),
			"negative":     len(groups.Negative),
		}).Debug("dataset loaded")

		out := cmd.OutOrStdout()
		printer := report.NewPrinter(out, features, groups)
		printer.Verbose = runVerbose
		printer.Plot = runPlot
		composer := cindex.NewComposer(
			cindex.WithRoundingDigits(digits),
			cindex.WithRoundSeed(roundSeed),
			cindex.WithTiePolicy(tie),
			cindex.WithWorkers(workers),
			cindex.WithOnRun(printer.Observe),
			cindex.WithLogger(log.StandardLogger()),
		)
		runs, err := composer.Run(cmd.Context(), features, groups)
		if err != nil {
			return err
		}

		rep := report.New(tbl.Name, report.Settings{
			PositiveThreshold: posThr,
			NegativeThreshold: negThr,
			RoundingDigits:    digits,
			RoundSeed:         roundSeed,
			TiePolicy:         tie.String(),
		}, features, groups, runs)

		written := false
		if runOutputPath != "" {
			if err := rep.Save(runOutputPath, format); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote report to %s\n", runOutputPath)
			written = true
		}
		if runSave {
			path := filepath.Join(c.ResultsDir, rep.ID+"."+string(format))
			if err := rep.Save(path, format); err != nil {
				return fmt.Errorf("save report: %w", err)
			}
			fmt.Fprintf(out, "✓ Saved report as %s\n", path)
			written = true
		}
		if !written {
			if err := rep.Write(out, format); err != nil {
				return err
			}
		}
		if rep.Best == nil {
			return fmt.Errorf("%s: %w", tbl.Name, cindex.ErrNoResult)
		}
		if written {
			fmt.Fprintf(out, "Best C-index: %s\n", strings.Join(rep.Best.Components, " "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runCondColumn, "condition-column", "c", "", "take the conditioning variable from this column of the table")
	runCmd.Flags().Float64Var(&runPosThr, "pos-threshold", 1, "observations with condition above this are positive")
	runCmd.Flags().Float64Var(&runNegThr, "neg-threshold", -1, "observations with condition below this are negative")
	runCmd.Flags().IntVar(&runRounding, "rounding", 4, "decimals kept on scores and on the composite (-1 disables rounding)")
	runCmd.Flags().BoolVar(&runRoundSeed, "round-seed", false, "also round the score of the starting variable alone")
	runCmd.Flags().StringVar(&runTiePolicy, "tie-policy", "drop", "add/subtract tie handling: drop | add | subtract")
	runCmd.Flags().IntVar(&runWorkers, "workers", 1, "starting variables composed concurrently")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "print the components of every run")
	runCmd.Flags().BoolVar(&runPlot, "plot", false, "draw trajectory and group charts for every run")
	runCmd.Flags().StringVarP(&runOutputPath, "output", "o", "", "write the report to this path (format from extension unless --format)")
	runCmd.Flags().StringVar(&runFormat, "format", "md", "report format: md | json | yaml")
	runCmd.Flags().BoolVar(&runStandardize, "standardize", false, "Z-score every variable before composing")
	runCmd.Flags().BoolVar(&runSave, "save", false, "also save the report under the configured results_dir")
	runCmd.Flags().StringVar(&runDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	runCmd.Flags().StringVar(&runDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
}
