package cmd

import (
	"fmt"

	"github.com/KaramelBytes/cindex/internal/dataset"
	"github.com/KaramelBytes/cindex/internal/utils"
	"github.com/spf13/cobra"
)

var (
	descOutputPath string
	descDelimiter  string
	descDecimal    string
	descTolerance  float64
	descCondColumn string
)

var describeCmd = &cobra.Command{
	Use:   "describe <variables.csv>",
	Short: "Summarize the variables of a table and check they are standardized",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := tableOptions(descDelimiter, descDecimal)
		if err != nil {
			return err
		}
		opt.ConditionColumn = descCondColumn
		tbl, err := dataset.LoadTable(args[0], opt)
		if err != nil {
			return err
		}
		tol := effective().StdTolerance
		if cmd.Flags().Changed("tolerance") {
			tol = descTolerance
		}
		md := dataset.Describe(tbl.Name, tbl.Features, tol).Markdown()

		out := cmd.OutOrStdout()
		if descOutputPath != "" {
			if err := utils.SafeWriteFile(descOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote summary to %s\n", descOutputPath)
			return nil
		}
		fmt.Fprintln(out, md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	describeCmd.Flags().StringVar(&descDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	describeCmd.Flags().StringVar(&descDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	describeCmd.Flags().Float64Var(&descTolerance, "tolerance", dataset.DefaultTolerance, "allowed |mean| and |std-1| for a standardized variable")
	describeCmd.Flags().StringVarP(&descCondColumn, "condition-column", "c", "", "exclude this column from the summary")
}
