package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// addEvalFlags registers the flags shared by eval and watch.
func addEvalFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("combo", "c", nil, "Program to evaluate (repeatable)")
	cmd.Flags().StringP("combo-file", "C", "", "File with one program per line")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringP("format", "f", "", "Output format (delimited|csv|tsv|table|json|markdown)")
	cmd.Flags().BoolP("display-input", "d", false, "Print the input columns before the results")
	cmd.Flags().Bool("header", false, "Print a header line in delimited output")
	cmd.Flags().String("failure-token", "", "Text printed for cells that failed to evaluate")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"delimited", "csv", "tsv", "table", "json", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate programs against a table",
		Long: `Evaluate one or more combo programs against every row of an input table.

The type of the target column (the first by default) selects the evaluator:
boolean tables are evaluated as truth tables, continuous tables as real-valued
functions. Each program produces one output column, in the order given.`,
		Example: `  # Evaluate a program over a CSV file
  evaltable eval -i data.csv -c 'and(#1 #2)'

  # Use column labels from the header row
  evaltable eval -i data.csv -l -c 'and(#smoker #old)' -c 'or(#smoker #old)'

  # Read programs from a file and show the input alongside the results
  evaltable eval -i data.csv -C programs.txt -d --format table

  # Read the table from stdin
  cat data.csv | evaltable eval -c 'not(#1)'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			programs, err := loadPrograms(cc.Cfg)
			if err != nil {
				return err
			}
			return runEval(cmd.Context(), cc, programs, cmd.OutOrStdout())
		},
	}

	addEvalFlags(cmd)
	return cmd
}

func runEval(ctx context.Context, cc *CommandContext, programs []string, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := cc.Engine.Run(ctx, programs)
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(cc.Cfg, stdout)
	if err != nil {
		return err
	}
	if err := cc.Engine.Render(ctx, w, res, renderOptions(cc.Cfg, w)); err != nil {
		_ = closeOut()
		return err
	}
	return closeOut()
}
