package commands

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/evaltable/internal/cli/config"
	"github.com/leapstack-labs/evaltable/internal/state"
)

func sampleRun() (*state.Run, []state.ProgramResult) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	completed := started.Add(1500 * time.Millisecond)
	run := &state.Run{
		ID:           "0f8fad5b-d9cb-469f-a165-70867728950e",
		Status:       state.RunStatusCompleted,
		StartedAt:    started,
		CompletedAt:  &completed,
		Source:       "csv:data.csv",
		Rows:         3,
		Columns:      2,
		DispatchType: "boolean",
		Seed:         7,
		NaNPolicy:    "propagate",
		Workers:      4,
	}
	programs := []state.ProgramResult{
		{Position: 1, Program: "and(#1 #2)", OK: 3, True: 1},
		{Position: 2, Program: "or(#1 #2)", OK: 3, True: 2},
	}
	return run, programs
}

func TestRenderRuns(t *testing.T) {
	run, _ := sampleRun()
	buf := new(bytes.Buffer)

	renderRuns(buf, []*state.Run{run})

	out := buf.String()
	assert.Contains(t, out, "0f8fad5b")
	assert.NotContains(t, out, "d9cb", "ids are shortened")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "(1 rows)")
}

func TestRenderRun(t *testing.T) {
	run, programs := sampleRun()
	run.Error = "boom"
	buf := new(bytes.Buffer)

	renderRun(buf, run, programs)

	out := buf.String()
	assert.Contains(t, out, "Run:      "+run.ID)
	assert.Contains(t, out, "3 rows x 2 columns (boolean)")
	assert.Contains(t, out, "Error:    boom")
	assert.Contains(t, out, "and(#1 #2)")
	assert.Contains(t, out, "or(#1 #2)")
}

func TestWriteRunYAML(t *testing.T) {
	run, programs := sampleRun()
	buf := new(bytes.Buffer)

	require.NoError(t, writeRunYAML(buf, run, programs))

	var doc struct {
		Run struct {
			ID     string `yaml:"id"`
			Status string `yaml:"status"`
			Seed   uint64 `yaml:"seed"`
		} `yaml:"run"`
		Programs []struct {
			Position int    `yaml:"position"`
			Program  string `yaml:"program"`
			True     int    `yaml:"true"`
		} `yaml:"programs"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, run.ID, doc.Run.ID)
	assert.Equal(t, "completed", doc.Run.Status)
	assert.Equal(t, uint64(7), doc.Run.Seed)
	require.Len(t, doc.Programs, 2)
	assert.Equal(t, "or(#1 #2)", doc.Programs[1].Program)
	assert.Equal(t, 2, doc.Programs[1].True)
}

func TestOpenHistory_Missing(t *testing.T) {
	t.Chdir(t.TempDir())
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	_, err := openHistory(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run history at")
	assert.Contains(t, err.Error(), "--history")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "01234567", shortID("0123456789"))
}
