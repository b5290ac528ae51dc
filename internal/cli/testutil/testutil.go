// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// TruthTable is a labeled boolean table with three rows.
const TruthTable = `a,b
1,0
0,0
1,1
`

// ContinuousTable is a labeled continuous table with two rows.
const ContinuousTable = `x,y
2.0,1.0
-1.0,0.5
`

// Programs is a combo file with a comment and a blank line.
const Programs = `; truth table scores
and(#1 #2)

or(#1 #2)
`

// SetupTestProject creates a temporary project holding data.csv,
// numbers.csv and programs.txt, and returns its directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	files := map[string]string{
		"data.csv":     TruthTable,
		"numbers.csv":  ContinuousTable,
		"programs.txt": Programs,
	}
	for name, content := range files {
		WriteFile(t, filepath.Join(tmpDir, name), content)
	}
	return tmpDir
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// Output captures a command's stdout and stderr.
type Output struct {
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewOutput creates empty capture buffers.
func NewOutput() *Output {
	return &Output{Out: &bytes.Buffer{}, ErrOut: &bytes.Buffer{}}
}

// Stdout returns the captured stdout.
func (o *Output) Stdout() string {
	return o.Out.String()
}

// Stderr returns the captured stderr.
func (o *Output) Stderr() string {
	return o.ErrOut.String()
}

// Reset clears both buffers.
func (o *Output) Reset() {
	o.Out.Reset()
	o.ErrOut.Reset()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdownTable checks that every non-empty line is a pipe table
// row and that the second line is the separator row.
func AssertValidMarkdownTable(t *testing.T, md string) {
	t.Helper()

	var lines []string
	for _, line := range strings.Split(md, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		t.Fatalf("markdown table needs a header and a separator, got %q", md)
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			t.Errorf("line %d is not a table row: %q", i+1, line)
		}
	}
	if strings.Trim(lines[1], "|-: ") != "" {
		t.Errorf("second line is not a separator row: %q", lines[1])
	}
}
