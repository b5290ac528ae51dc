package engine

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/leapstack-labs/evaltable/internal/state"
	"github.com/leapstack-labs/evaltable/internal/telemetry"
	"github.com/leapstack-labs/evaltable/pkg/batch"
	"github.com/leapstack-labs/evaltable/pkg/core"
	"github.com/leapstack-labs/evaltable/pkg/table"
)

// Result is the outcome of one run.
type Result struct {
	Table *table.Table
	// Programs are the texts as given, before label translation.
	Programs []string
	Trees    []core.Node
	Output   *batch.Output
	// Run is the history record, nil when history is disabled.
	Run *state.Run
}

// Run loads the table, compiles programs and evaluates them. Parse-time
// errors abort the run before anything is evaluated. When history is
// enabled, every run that gets past loading the table is recorded.
func (e *Engine) Run(ctx context.Context, programs []string) (res *Result, err error) {
	ctx, span := e.tel.Start(ctx, "run", attribute.Int("programs", len(programs)))
	defer func() { telemetry.EndSpan(span, err) }()

	status := state.RunStatusFailed
	defer func() {
		e.tel.Metrics.RunsTotal.WithLabelValues(string(status)).Inc()
	}()

	t, err := e.LoadTable(ctx)
	if err != nil {
		return nil, err
	}
	res = &Result{Table: t, Programs: programs}

	if err := e.startRun(ctx, res); err != nil {
		return nil, err
	}

	res.Trees, err = e.Compile(ctx, programs, t)
	if err == nil {
		res.Output, err = e.Evaluate(ctx, res.Trees, t)
	}
	if err != nil {
		e.finishRun(ctx, res, state.RunStatusFailed, err)
		return res, err
	}

	status = state.RunStatusCompleted
	e.finishRun(ctx, res, status, nil)
	return res, nil
}

func (e *Engine) startRun(ctx context.Context, res *Result) error {
	if e.store == nil {
		return nil
	}

	name := e.cfg.Source.Path
	if e.cfg.Source.Type != "" && e.cfg.Source.Type != "csv" {
		name = e.cfg.Source.Type + ":" + e.cfg.Source.Path
	}

	run := &state.Run{
		Source:    name,
		Rows:      res.Table.RowCount(),
		Columns:   res.Table.ColumnCount(),
		Seed:      e.cfg.Seed,
		NaNPolicy: string(e.cfg.NaN),
		Workers:   e.cfg.Workers,
	}
	if typ, err := res.Table.DispatchType(); err == nil {
		run.DispatchType = typ.String()
	}
	if err := e.store.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	e.logger.Debug("created run", slog.String("run_id", run.ID))
	res.Run = run
	return nil
}

// finishRun records the outcome. History write failures are logged, not
// returned, so they never mask the evaluation result.
func (e *Engine) finishRun(ctx context.Context, res *Result, status state.RunStatus, runErr error) {
	if e.store == nil || res.Run == nil {
		return
	}

	if res.Output != nil {
		summaries := res.Output.Summary()
		results := make([]state.ProgramResult, len(summaries))
		for i, s := range summaries {
			results[i] = state.ProgramResult{
				Position:     i + 1,
				Program:      res.Programs[i],
				OK:           s.OK,
				DomainErrors: s.DomainErrors,
				Failed:       s.Failed,
				True:         s.True,
			}
			if s.FirstError != nil {
				results[i].FirstError = s.FirstError.Error()
			}
		}
		if err := e.store.RecordPrograms(ctx, res.Run.ID, results); err != nil {
			e.logger.Warn("failed to record programs", slog.String("run_id", res.Run.ID), slog.String("error", err.Error()))
		}
	}

	var msg string
	if runErr != nil {
		msg = runErr.Error()
	}
	if err := e.store.CompleteRun(ctx, res.Run.ID, status, msg); err != nil {
		e.logger.Warn("failed to complete run", slog.String("run_id", res.Run.ID), slog.String("error", err.Error()))
		return
	}
	if run, err := e.store.GetRun(ctx, res.Run.ID); err == nil {
		res.Run = run
	}
	e.logger.Info("run finished", slog.String("run_id", res.Run.ID), slog.String("status", string(status)))
}
