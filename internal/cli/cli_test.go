package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaltable/internal/cli/config"
	"github.com/leapstack-labs/evaltable/internal/cli/testutil"
	"github.com/leapstack-labs/evaltable/internal/state"
)

// runCLI executes the root command in dir with the given stdin.
func runCLI(t *testing.T, dir, stdin string, args ...string) (*testutil.Output, error) {
	t.Helper()
	t.Chdir(dir)
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	out := testutil.NewOutput()
	cmd := NewRootCmd()
	cmd.SetOut(out.Out)
	cmd.SetErr(out.ErrOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out, err
}

func TestEval(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{
			name: "labels with header",
			args: []string{"eval", "-i", "data.csv", "-l", "-c", "and(#a #b)", "-c", "or(#a #b)", "--header"},
			want: "and(#a #b),or(#a #b)\n0,1\n0,0\n1,1\n",
		},
		{
			name: "positional placeholders",
			args: []string{"eval", "-i", "data.csv", "-H", "-c", "and(#1 #2)"},
			want: "0\n0\n1\n",
		},
		{
			name: "display input",
			args: []string{"eval", "-i", "data.csv", "-H", "-d", "--header", "-c", "not(#1)"},
			want: "a,b,not(#1)\n1,0,0\n0,0,1\n1,1,0\n",
		},
		{
			name: "combo file",
			args: []string{"eval", "-i", "data.csv", "-H", "-C", "programs.txt"},
			want: "0,1\n0,0\n1,1\n",
		},
		{
			name:  "stdin without header",
			stdin: "1,0\n0,1\n",
			args:  []string{"eval", "-c", "or(#1 #2)", "-c", "xor(#1 #2)"},
			want:  "1,1\n1,1\n",
		},
		{
			name: "continuous with nan",
			args: []string{"eval", "-i", "numbers.csv", "-H", "-c", "log(#1)"},
			want: "0.6931471805599453\nnan\n",
		},
		{
			name: "tsv output",
			args: []string{"eval", "-i", "data.csv", "-H", "-f", "tsv", "-c", "#1", "-c", "#2"},
			want: "1\t0\n0\t0\n1\t1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.SetupTestProject(t)
			out, err := runCLI(t, dir, tt.stdin, tt.args...)
			require.NoError(t, err, out.Stderr())
			assert.Equal(t, tt.want, out.Stdout())
		})
	}
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{
			name:      "syntax error",
			args:      []string{"eval", "-i", "data.csv", "-H", "-c", "and(#1 #2)", "-c", "and(#1"},
			errSubstr: "program 2",
		},
		{
			name:      "no programs",
			args:      []string{"eval", "-i", "data.csv"},
			errSubstr: "no programs to evaluate",
		},
		{
			name:      "unknown label",
			args:      []string{"eval", "-i", "data.csv", "-l", "-c", "and(#a #zzz)"},
			errSubstr: "zzz",
		},
		{
			name:      "missing table",
			args:      []string{"eval", "-i", "nope.csv", "-c", "#1"},
			errSubstr: "failed to open table",
		},
		{
			name:      "bad format",
			args:      []string{"eval", "-i", "data.csv", "-f", "xml", "-c", "#1"},
			errSubstr: "unknown output format",
		},
		{
			name:      "target out of range",
			args:      []string{"eval", "-i", "data.csv", "-H", "--target", "5", "-c", "#1"},
			errSubstr: "target column 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.SetupTestProject(t)
			out, err := runCLI(t, dir, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
			assert.Empty(t, out.Stdout())
		})
	}
}

func TestEval_OutputFile(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := runCLI(t, dir, "", "eval", "-i", "data.csv", "-H", "-c", "or(#1 #2)", "-o", "result.csv")
	require.NoError(t, err)
	assert.Empty(t, out.Stdout())

	data, err := os.ReadFile(filepath.Join(dir, "result.csv"))
	require.NoError(t, err)
	assert.Equal(t, "1\n0\n1\n", string(data))
}

func TestEval_ConfigFile(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	testutil.WriteFile(t, filepath.Join(dir, "evaltable.yaml"), `table: data.csv
has_header: true
combo:
  - xor(#1 #2)
format: markdown
`)

	out, err := runCLI(t, dir, "", "eval")
	require.NoError(t, err, out.Stderr())
	testutil.AssertValidMarkdownTable(t, out.Stdout())
	assert.Contains(t, out.Stdout(), "xor(#1 #2)")

	// Flags override the file.
	out, err = runCLI(t, dir, "", "eval", "-f", "delimited")
	require.NoError(t, err)
	assert.Equal(t, "1\n0\n0\n", out.Stdout())
}

func TestEval_JSON(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := runCLI(t, dir, "", "eval", "-i", "data.csv", "-H", "-f", "json", "-c", "and(#1 #2)")
	require.NoError(t, err)
	assert.Contains(t, out.Stdout(), `"type": "boolean"`)
	assert.Contains(t, out.Stdout(), `"program": "and(#1 #2)"`)
	testutil.AssertNoANSI(t, out.Stdout())
}

func TestEval_HistoryAndRuns(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	statePath := filepath.Join(dir, "history", "runs.db")

	_, err := runCLI(t, dir, "", "eval", "-i", "data.csv", "-H", "-C", "programs.txt", "--history", "--state", statePath, "--seed", "9")
	require.NoError(t, err)

	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(statePath))
	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, runs, 1)
	id := runs[0].ID

	out, err := runCLI(t, dir, "", "runs", "list", "--state", statePath)
	require.NoError(t, err)
	assert.Contains(t, out.Stdout(), id[:8])
	assert.Contains(t, out.Stdout(), "completed")
	assert.Contains(t, out.Stdout(), "(1 rows)")

	out, err = runCLI(t, dir, "", "runs", "show", id[:8], "--state", statePath, "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out.Stdout(), "id: "+id)
	assert.Contains(t, out.Stdout(), "seed: 9")
	assert.Contains(t, out.Stdout(), "or(#1 #2)")

	_, err = runCLI(t, dir, "", "runs", "show", "ffffffff", "--state", statePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRuns_NoHistory(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	_, err := runCLI(t, dir, "", "runs", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run history")
}

func TestInfer(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := runCLI(t, dir, "", "infer", "-i", "numbers.csv", "-H")
	require.NoError(t, err)
	assert.Contains(t, out.Stdout(), "continuous")
	assert.Contains(t, out.Stdout(), "(2 rows)")
	assert.Contains(t, out.Stdout(), "dispatch: continuous")

	out, err = runCLI(t, dir, "", "infer", "-i", "data.csv", "-H", "--markdown")
	require.NoError(t, err)
	assert.Contains(t, out.Stdout(), "| 1 | a | boolean |")
	assert.Contains(t, out.Stdout(), "dispatch: boolean")
}

func TestOperators(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	testutil.WriteFile(t, filepath.Join(dir, "ops", "implies.star"), `
def implies(a, b):
    return (not a) or b

operator(
    name = "implies",
    args = ["boolean", "boolean"],
    result = "boolean",
    fn = implies,
    doc = "material implication",
)
`)

	out, err := runCLI(t, dir, "", "operators", "--operators-dir", "ops")
	require.NoError(t, err, out.Stderr())
	assert.Contains(t, out.Stdout(), "contin_if")
	assert.Contains(t, out.Stdout(), "implies")
	assert.Contains(t, out.Stdout(), "starlark")
	assert.Contains(t, out.Stdout(), "material implication")
}

func TestVersion(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out.Stdout(), "evaltable v"+Version)
}

func TestCompletion(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out.Stdout(), "evaltable")
}
