// Package cli provides the command-line interface for evaltable.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/evaltable/internal/cli/commands"
	"github.com/leapstack-labs/evaltable/internal/cli/config"
	"github.com/leapstack-labs/evaltable/internal/source"
	"github.com/leapstack-labs/evaltable/pkg/batch"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "evaltable",
		Short: "evaltable - evaluate combo programs against tables",
		Long: `evaltable evaluates combo programs, small prefix-notation expression
trees such as and(#1 not(#2)), against every row of a table.

Tables come from CSV/TSV files or stdin, SQLite and DuckDB files, or Postgres.
Each program produces one output column, computed in parallel and written in
the order the programs were given.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, config.LoggerKey(), logger))

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", slog.String("path", configFile))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Combo program evaluator built with Go
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./evaltable.yaml)")
	pf.BoolP("verbose", "v", false, "Verbose output")

	pf.StringP("table", "i", "", "Input table file, '-' for stdin")
	pf.BoolP("has-header", "H", false, "First row of the table holds column labels")
	pf.String("delimiter", "", "Input field delimiter (default ',', 'tab' for tabs)")
	pf.Int("target", 0, "1-based column whose type selects the evaluator (default 1)")
	pf.BoolP("labels", "l", false, "Programs use #label placeholders (implies --has-header)")

	pf.String("source-type", "", "Table source (csv|sqlite|duckdb|postgres)")
	pf.String("dsn", "", "Database connection string for SQL sources")
	pf.String("query", "", "Query producing the table for SQL sources")

	pf.String("operators-dir", "", "Directory of Starlark operator definitions")
	pf.String("state", "", "Path to the run history database")
	pf.Bool("history", false, "Record runs in the history database")

	pf.Uint64P("seed", "r", batch.DefaultSeed, "Seed for stochastic operators")
	pf.IntP("workers", "w", 0, "Evaluation workers (default: number of CPUs)")
	pf.String("nan-policy", "", "NaN handling (propagate|fail)")

	pf.String("trace-file", "", "Write OpenTelemetry spans to this file")
	pf.String("metrics-file", "", "Write Prometheus metrics to this file on exit")

	_ = rootCmd.RegisterFlagCompletionFunc("source-type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return source.List(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("nan-policy", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"propagate", "fail"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewEvalCommand())
	rootCmd.AddCommand(commands.NewInferCommand())
	rootCmd.AddCommand(commands.NewOperatorsCommand())
	rootCmd.AddCommand(commands.NewREPLCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for evaltable.

To load completions:

Bash:
  $ source <(evaltable completion bash)

Zsh:
  $ evaltable completion zsh > "${fpath[1]}/_evaltable"

Fish:
  $ evaltable completion fish | source

PowerShell:
  PS> evaltable completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
