package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDisabled(t *testing.T) {
	tel := Disabled()
	_, span := tel.Start(context.Background(), "evaluate")
	assert.False(t, span.SpanContext().IsValid())
	EndSpan(span, errors.New("ignored"))

	tel.Metrics.RecordCells("ok", 3)
	assert.InDelta(t, 3, testutil.ToFloat64(tel.Metrics.CellsTotal.WithLabelValues("ok")), 0)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestTraceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	tel, err := New(Config{TraceFile: path, ServiceVersion: "1.2.3"})
	require.NoError(t, err)

	ctx, parent := tel.Start(context.Background(), "run")
	_, child := tel.Start(ctx, "compile", attribute.Int("programs", 2))
	assert.True(t, child.SpanContext().IsValid())
	assert.Equal(t, parent.SpanContext().TraceID(), child.SpanContext().TraceID())
	EndSpan(child, errors.New("program 2: bad"))
	EndSpan(parent, nil)

	require.NoError(t, tel.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"Name": "compile"`)
	assert.Contains(t, out, `"Name": "run"`)
	assert.Contains(t, out, "program 2: bad")
	assert.Contains(t, out, "1.2.3")
}

func TestTraceFileError(t *testing.T) {
	_, err := New(Config{TraceFile: filepath.Join(t.TempDir(), "missing", "trace.json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create trace file")
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.prom")
	tel, err := New(Config{MetricsFile: path})
	require.NoError(t, err)

	m := tel.Metrics
	m.RunsTotal.WithLabelValues("completed").Inc()
	m.ProgramsTotal.Add(2)
	m.RowsTotal.Add(3)
	m.RecordCells("ok", 5)
	m.RecordCells("failed", 1)
	m.RecordCells("domain_error", 0)
	m.ObserveStage(StageEvaluate, 2*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.StageSeconds))
	assert.Equal(t, 2, testutil.CollectAndCount(m.CellsTotal))

	require.NoError(t, tel.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `evaltable_runs_total{status="completed"} 1`)
	assert.Contains(t, out, "evaltable_programs_total 2")
	assert.Contains(t, out, "evaltable_rows_total 3")
	assert.Contains(t, out, `evaltable_cells_total{status="ok"} 5`)
	assert.Contains(t, out, `evaltable_stage_duration_seconds_count{stage="evaluate"} 1`)
	assert.NotContains(t, out, "domain_error")
}
