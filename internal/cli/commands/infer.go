package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	evtable "github.com/leapstack-labs/evaltable/pkg/table"
)

// NewInferCommand creates the infer command.
func NewInferCommand() *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Show the inferred type of each column",
		Long: `Load the input table and print the type inferred for each column,
along with missing and distinct value counts. The target column, marked with
'*', decides which evaluator eval will use.`,
		Example: `  evaltable infer -i data.csv -H
  evaltable infer --source-type sqlite -i cases.db --query 'SELECT * FROM cases'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			t, err := cc.Engine.LoadTable(cmd.Context())
			if err != nil {
				return err
			}
			return renderInference(cmd.OutOrStdout(), t, markdown)
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print a Markdown table")
	return cmd
}

func renderInference(w io.Writer, t *evtable.Table, markdown bool) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Label", "Type", "Missing", "Distinct", "Target"})

	labels := t.Labels()
	for i := 0; i < t.ColumnCount(); i++ {
		col := t.Column(i)
		target := ""
		if i == t.Target() {
			target = "*"
		}
		tw.AppendRow(table.Row{i + 1, labels[i], col.Type.String(), col.MissingCount(), col.DistinctCount(), target})
	}

	if markdown {
		tw.RenderMarkdown()
	} else {
		tw.Render()
	}

	_, _ = fmt.Fprintf(w, "(%d rows)\n", t.RowCount())
	typ, err := t.DispatchType()
	if err != nil {
		_, _ = fmt.Fprintf(w, "dispatch: unsupported (%v)\n", err)
		return nil
	}
	_, _ = fmt.Fprintf(w, "dispatch: %s\n", typ)
	return nil
}
