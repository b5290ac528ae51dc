package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/evaltable/internal/cli/config"
	"github.com/leapstack-labs/evaltable/internal/state"
)

const defaultRunsLimit = 20

// NewRunsCommand creates the runs command and its subcommands.
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect run history",
		Long: `Inspect evaluations recorded with --history.

Run history lives in the SQLite database at state_path.`,
	}

	cmd.AddCommand(newRunsListCommand())
	cmd.AddCommand(newRunsShowCommand())
	return cmd
}

func newRunsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultRunsLimit, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newRunsShowCommand() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its per-program summary",
		Long:  `Show one run. A unique prefix of the run ID is enough.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				if state.IsNotFound(err) {
					return fmt.Errorf("run %q not found", args[0])
				}
				return err
			}
			programs, err := store.GetPrograms(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			if asYAML {
				return writeRunYAML(cmd.OutOrStdout(), run, programs)
			}
			renderRun(cmd.OutOrStdout(), run, programs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the run as YAML")
	return cmd
}

// openHistory opens the run history without creating it.
func openHistory(cmd *cobra.Command) (*state.SQLiteStore, error) {
	cfg := getConfig()
	if _, err := os.Stat(cfg.StatePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no run history at %s\nHint: run eval with --history", cfg.StatePath)
		}
		return nil, err
	}

	store := state.NewSQLiteStore(config.GetLogger(cmd.Context()))
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	return store, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderRuns(w io.Writer, runs []*state.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Started", "Status", "Source", "Rows", "Type", "Duration"})

	for _, r := range runs {
		t.AppendRow(table.Row{
			shortID(r.ID),
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			r.Source,
			r.Rows,
			r.DispatchType,
			r.Duration().Round(time.Millisecond),
		})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(runs))
}

func renderRun(w io.Writer, r *state.Run, programs []state.ProgramResult) {
	_, _ = fmt.Fprintf(w, "Run:      %s\n", r.ID)
	_, _ = fmt.Fprintf(w, "Status:   %s\n", r.Status)
	_, _ = fmt.Fprintf(w, "Started:  %s\n", r.StartedAt.Local().Format(time.DateTime))
	if r.CompletedAt != nil {
		_, _ = fmt.Fprintf(w, "Duration: %s\n", r.Duration().Round(time.Millisecond))
	}
	_, _ = fmt.Fprintf(w, "Source:   %s\n", r.Source)
	_, _ = fmt.Fprintf(w, "Table:    %d rows x %d columns (%s)\n", r.Rows, r.Columns, r.DispatchType)
	_, _ = fmt.Fprintf(w, "Seed:     %d\n", r.Seed)
	if r.Error != "" {
		_, _ = fmt.Fprintf(w, "Error:    %s\n", r.Error)
	}
	_, _ = fmt.Fprintln(w)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Program", "OK", "Domain", "Failed", "True", "First Error"})
	for _, p := range programs {
		t.AppendRow(table.Row{p.Position, p.Program, p.OK, p.DomainErrors, p.Failed, p.True, p.FirstError})
	}
	t.Render()
}

type runDocument struct {
	Run      *state.Run            `yaml:"run"`
	Programs []state.ProgramResult `yaml:"programs"`
}

func writeRunYAML(w io.Writer, r *state.Run, programs []state.ProgramResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runDocument{Run: r, Programs: programs}); err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	return enc.Close()
}
