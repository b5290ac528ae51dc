package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/evaltable/internal/engine"
	"github.com/leapstack-labs/evaltable/pkg/render"
	"github.com/leapstack-labs/evaltable/pkg/table"
)

const replPrompt = "evaltable> "

var replErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Evaluate programs interactively",
		Long: `Load the input table once and evaluate each program typed at the
prompt against it. Lines starting with '.' are commands; type .help to list them.`,
		Example: `  evaltable repl -i data.csv -H`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if cc.Cfg.Source.Type == "" || cc.Cfg.Source.Type == "csv" {
				if cc.Cfg.Table == "" || cc.Cfg.Table == "-" {
					return fmt.Errorf("repl needs a table file\nHint: pass --table/-i")
				}
			}
			return runREPL(cmd, cc)
		},
	}

	cmd.Flags().StringP("format", "f", "", "Output format (delimited|csv|tsv|table|json|markdown)")
	return cmd
}

func runREPL(cmd *cobra.Command, cc *CommandContext) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	t, err := cc.Engine.LoadTable(ctx)
	if err != nil {
		return err
	}

	// The REPL defaults to the table layout unless a format was configured.
	opts := renderOptions(cc.Cfg, cmd.OutOrStdout())
	if !cmd.Flags().Changed("format") && cc.Cfg.Format == "delimited" {
		opts.Format = render.FormatTable
		opts.Color = render.DetectColor(cmd.OutOrStdout())
	}

	session := &replSession{
		eng:    cc.Engine,
		table:  t,
		opts:   opts,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}

	var historyFile string
	if dir := filepath.Dir(cc.Cfg.StatePath); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			historyFile = filepath.Join(dir, "repl_history")
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    session.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(session.out, "evaltable REPL (%d rows, %d columns)\n", t.RowCount(), t.ColumnCount())
	_, _ = fmt.Fprintln(session.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(session.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if session.handle(ctx, line) {
			break
		}
	}
	return nil
}

// replSession evaluates REPL input against a loaded table.
type replSession struct {
	eng    *engine.Engine
	table  *table.Table
	opts   render.Options
	out    io.Writer
	errOut io.Writer
}

// handle processes one input line and reports whether the session should end.
func (s *replSession) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, ";") {
		return false
	}
	if strings.HasPrefix(line, ".") {
		return s.dotCommand(line)
	}

	if err := s.evaluate(ctx, line); err != nil {
		s.printError(err)
	}
	return false
}

func (s *replSession) evaluate(ctx context.Context, program string) error {
	trees, err := s.eng.Compile(ctx, []string{program}, s.table)
	if err != nil {
		return err
	}
	out, err := s.eng.Evaluate(ctx, trees, s.table)
	if err != nil {
		return err
	}
	res := &engine.Result{
		Table:    s.table,
		Programs: []string{program},
		Trees:    trees,
		Output:   out,
	}
	return s.eng.Render(ctx, s.out, res, s.opts)
}

func (s *replSession) dotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".columns":
		if err := renderInference(s.out, s.table, false); err != nil {
			s.printError(err)
		}

	case ".labels":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(s.out, "labels: %s\n", onOff(s.eng.Labels()))
			return false
		}
		switch strings.ToLower(parts[1]) {
		case "on":
			if !s.table.HasHeader() {
				s.printError(fmt.Errorf("table has no header row"))
				return false
			}
			s.eng.SetLabels(true)
		case "off":
			s.eng.SetLabels(false)
		default:
			_, _ = fmt.Fprintln(s.errOut, "Usage: .labels on|off")
		}

	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(s.out, "format: %s\n", s.opts.Format)
			return false
		}
		format, delim, err := render.ParseFormat(parts[1])
		if err != nil {
			s.printError(err)
			return false
		}
		s.opts.Format = format
		if delim != "" {
			s.opts.Delimiter = delim
		}

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (s *replSession) printError(err error) {
	_, _ = fmt.Fprintln(s.errOut, replErrorStyle.Render("Error: "+err.Error()))
}

func (s *replSession) completer() *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".columns"),
		readline.PcItem(".labels", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem(".format",
			readline.PcItem("delimited"),
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("markdown"),
		),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	}
	for _, name := range s.eng.Registry().Names() {
		items = append(items, readline.PcItem(name+"("))
	}
	return readline.NewPrefixCompleter(items...)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .columns          Show column types of the loaded table
  .labels [on|off]  Show or toggle #label placeholders
  .format [name]    Show or set the output format
  .quit / .exit     Exit the REPL

Any other line is evaluated as a program, e.g. and(#1 not(#2))
Lines starting with ';' are ignored.
`
	_, _ = fmt.Fprintln(w, help)
}
