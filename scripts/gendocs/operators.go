package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/evaltable/pkg/operator"
)

// generateOperatorDocs writes a reference page for the builtin operators.
func generateOperatorDocs(outDir string) error {
	log.Printf("Generating operator docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Operators", "Builtin operators available to combo programs")
	w.GeneratedMarker()

	w.Header(1, "Operators")
	w.Paragraph(`Programs are prefix expressions: an operator name followed by its
arguments in parentheses, separated by spaces. Placeholders #1, #2, ... refer to
input columns. Boolean programs run against boolean tables and continuous
programs against continuous tables.`)

	reg := operator.Default()
	var rows [][]string
	for _, op := range reg.List() {
		stochastic := ""
		if op.Stochastic {
			stochastic = "yes"
		}
		rows = append(rows, []string{
			InlineCode(op.Name),
			InlineCode(op.Signature()),
			stochastic,
			cleanDescription(op.Doc),
		})
	}
	w.Table([]string{"Name", "Signature", "Stochastic", "Description"}, rows)

	w.Header(2, "Custom Operators")
	w.Paragraph("Operators can be added in Starlark files placed in operators_dir:")
	w.CodeBlock("python", `def implies(a, b):
    return (not a) or b

operator(
    name = "implies",
    args = ["boolean", "boolean"],
    result = "boolean",
    fn = implies,
    doc = "material implication",
)`)

	filename := filepath.Join(outDir, "index.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated index.md (%d operators)", reg.Len())
	return nil
}
