package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/evaltable/internal/cli"
	"github.com/leapstack-labs/evaltable/internal/cli/config"
)

// generateCLIDocs writes index.md plus one page per command. Subcommands get
// pages named parent_child.md.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rootCmd := cli.NewRootCmd()
	if err := writePage(outDir, "index.md", cliIndex(rootCmd)); err != nil {
		return err
	}

	for _, cmd := range documented(rootCmd) {
		if err := writeCommandPages(outDir, cmd); err != nil {
			return err
		}
	}
	return nil
}

func writeCommandPages(outDir string, cmd *cobra.Command) error {
	if err := writePage(outDir, pageName(cmd), commandPage(cmd)); err != nil {
		return err
	}
	for _, sub := range documented(cmd) {
		if err := writeCommandPages(outDir, sub); err != nil {
			return err
		}
	}
	return nil
}

func writePage(outDir, name string, w *MarkdownWriter) error {
	if err := os.WriteFile(filepath.Join(outDir, name), w.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	log.Printf("  Generated %s", name)
	return nil
}

// documented returns the visible subcommands of cmd.
func documented(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" || sub.Name() == "__complete" {
			continue
		}
		out = append(out, sub)
	}
	return out
}

// pageName turns "evaltable runs list" into "runs_list.md".
func pageName(cmd *cobra.Command) string {
	parts := strings.Fields(cmd.CommandPath())[1:]
	return strings.Join(parts, "_") + ".md"
}

func cliIndex(rootCmd *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for evaltable")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(rootCmd.Long)

	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/evaltable/cmd/evaltable@latest")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range documented(rootCmd) {
		page := strings.TrimSuffix(pageName(cmd), ".md")
		rows = append(rows, []string{
			fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), page),
			cleanDescription(cmd.Short),
		})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	w.Paragraph("These flags are available for all commands:")
	writeFlagsTable(w, rootCmd.PersistentFlags())

	w.Header(2, "Configuration")
	w.Paragraph(fmt.Sprintf("Settings are read from %s in the working directory or a parent, "+
		"then from %s* environment variables, then from flags. Nested keys use a double "+
		"underscore in variable names, as in %s. The Config Key column above gives the "+
		"name each flag uses in the file.",
		InlineCode(config.DefaultConfigName), InlineCode(config.EnvPrefix), InlineCode(config.EnvPrefix+"SOURCE__DSN")))

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), "Error (check stderr for details)"},
	})
	return w
}

func commandPage(cmd *cobra.Command) *MarkdownWriter {
	path := strings.TrimPrefix(cmd.CommandPath(), "evaltable ")

	w := NewMarkdownWriter()
	w.Frontmatter(path, cleanDescription(cmd.Short))
	w.GeneratedMarker()

	w.Header(1, path)
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	if cmd.HasAvailableSubCommands() {
		w.CodeBlock("bash", cmd.CommandPath()+" <subcommand> [options]")
	} else {
		w.CodeBlock("bash", cmd.UseLine())
	}

	if len(cmd.Aliases) > 0 {
		w.Header(2, "Aliases")
		aliases := make([]string, len(cmd.Aliases))
		for i, a := range cmd.Aliases {
			aliases[i] = InlineCode(a)
		}
		w.BulletList(aliases)
	}

	if subs := documented(cmd); len(subs) > 0 {
		w.Header(2, "Subcommands")
		var rows [][]string
		for _, sub := range subs {
			rows = append(rows, []string{InlineCode(sub.Name()), cleanDescription(sub.Short)})
		}
		w.Table([]string{"Subcommand", "Description"}, rows)
	}

	if cmd.HasAvailableLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}
	return w
}

// writeFlagsTable lists flags with the config key each one sets.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}

		short := ""
		if f.Shorthand != "" {
			short = "-" + f.Shorthand
		}
		def := f.DefValue
		if def != "" && def != "[]" && f.Value.Type() != "bool" {
			def = InlineCode(def)
		} else if def == "[]" {
			def = ""
		}
		key := config.FlagKey(f.Name)
		if key != "" {
			key = InlineCode(key)
		}

		rows = append(rows, []string{InlineCode("--" + f.Name), short, def, key, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Short", "Default", "Config Key", "Description"}, rows)
}

// cleanExample strips the indentation shared by every non-blank line.
func cleanExample(example string) string {
	lines := strings.Split(example, "\n")

	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.TrimSpace(example)
	}

	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
