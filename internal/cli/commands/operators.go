package commands

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/evaltable/pkg/operator"
)

// NewOperatorsCommand creates the operators command.
func NewOperatorsCommand() *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:     "operators",
		Aliases: []string{"ops"},
		Short:   "List the operators programs can use",
		Long: `List builtin operators and those defined in Starlark files under
operators_dir, with their signatures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			custom := make(map[string]bool)
			for _, name := range cc.Engine.CustomOperators() {
				custom[name] = true
			}
			renderOperators(cmd.OutOrStdout(), cc.Engine.Registry(), custom, markdown)
			return nil
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print a Markdown table")
	return cmd
}

func renderOperators(w io.Writer, reg *operator.Registry, custom map[string]bool, markdown bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Name", "Signature", "Stochastic", "Source", "Description"})

	for _, op := range reg.List() {
		origin := "builtin"
		if custom[op.Name] {
			origin = "starlark"
		}
		stochastic := ""
		if op.Stochastic {
			stochastic = "yes"
		}
		tw.AppendRow(table.Row{op.Name, op.Signature(), stochastic, origin, op.Doc})
	}

	if markdown {
		tw.RenderMarkdown()
		return
	}
	tw.Render()
}
