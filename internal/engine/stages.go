package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/leapstack-labs/evaltable/internal/source"
	"github.com/leapstack-labs/evaltable/internal/telemetry"
	"github.com/leapstack-labs/evaltable/pkg/batch"
	"github.com/leapstack-labs/evaltable/pkg/core"
	"github.com/leapstack-labs/evaltable/pkg/label"
	"github.com/leapstack-labs/evaltable/pkg/parser"
	"github.com/leapstack-labs/evaltable/pkg/render"
	"github.com/leapstack-labs/evaltable/pkg/table"
)

// LoadTable reads the configured source.
func (e *Engine) LoadTable(ctx context.Context) (t *table.Table, err error) {
	ctx, span := e.tel.Start(ctx, "load",
		attribute.String("source.type", e.cfg.Source.Type),
		attribute.String("source.path", e.cfg.Source.Path))
	defer func() { telemetry.EndSpan(span, err) }()
	defer e.observe(telemetry.StageLoad, time.Now())

	t, err = source.Load(ctx, e.cfg.Source, e.logger)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("table.rows", t.RowCount()), attribute.Int("table.columns", t.ColumnCount()))
	e.logger.Debug("loaded table",
		slog.Int("rows", t.RowCount()),
		slog.Int("columns", t.ColumnCount()),
		slog.Bool("header", t.HasHeader()))
	return t, nil
}

// Compile turns program texts into trees. In label mode each program is
// first rewritten to placeholder form against the table header.
func (e *Engine) Compile(ctx context.Context, programs []string, t *table.Table) (trees []core.Node, err error) {
	_, span := e.tel.Start(ctx, "compile",
		attribute.Int("programs", len(programs)),
		attribute.Bool("labels", e.cfg.Labels))
	defer func() { telemetry.EndSpan(span, err) }()
	defer e.observe(telemetry.StageCompile, time.Now())

	texts := programs
	if e.cfg.Labels {
		var header []string
		if t != nil {
			header = t.Header()
		}
		texts = make([]string, len(programs))
		for i, p := range programs {
			translated, err := label.Translate(p, header)
			if err != nil {
				return nil, fmt.Errorf("program %d: %w", i+1, err)
			}
			texts[i] = translated
		}
	}

	trees, err = parser.ParseAll(texts, e.registry)
	if err != nil {
		return nil, err
	}

	if t != nil {
		for i, tree := range trees {
			if highest := core.MaxInputIndex(tree); highest > t.ColumnCount() {
				e.logger.Warn("program references a column beyond the table width",
					slog.Int("program", i+1),
					slog.Int("index", highest),
					slog.Int("width", t.ColumnCount()))
			}
		}
	}

	e.tel.Metrics.ProgramsTotal.Add(float64(len(trees)))
	return trees, nil
}

// Evaluate runs every tree against every row.
func (e *Engine) Evaluate(ctx context.Context, trees []core.Node, t *table.Table) (out *batch.Output, err error) {
	ctx, span := e.tel.Start(ctx, "evaluate",
		attribute.Int("programs", len(trees)),
		attribute.Int("rows", t.RowCount()),
		attribute.Int("workers", e.cfg.Workers))
	defer func() { telemetry.EndSpan(span, err) }()
	defer e.observe(telemetry.StageEvaluate, time.Now())

	out, err = batch.EvaluateAll(ctx, trees, t, batch.Options{
		Workers: e.cfg.Workers,
		Seed:    e.cfg.Seed,
		NaN:     e.cfg.NaN,
		Logger:  e.logger,
	})
	if err != nil {
		return nil, err
	}

	ok, domainErrors, failed := out.Totals()
	span.SetAttributes(
		attribute.String("dispatch_type", out.Type.String()),
		attribute.Int("cells.ok", ok),
		attribute.Int("cells.domain_error", domainErrors),
		attribute.Int("cells.failed", failed))

	m := e.tel.Metrics
	m.RowsTotal.Add(float64(out.Rows))
	m.RecordCells(batch.OK.String(), ok)
	m.RecordCells(batch.DomainError.String(), domainErrors)
	m.RecordCells(batch.Failed.String(), failed)

	if failed > 0 {
		e.logger.Info("some cells failed to evaluate", slog.Int("failed", failed))
	}
	return out, nil
}

// Render writes a result.
func (e *Engine) Render(ctx context.Context, w io.Writer, res *Result, opts render.Options) (err error) {
	_, span := e.tel.Start(ctx, "render", attribute.String("format", string(opts.Format)))
	defer func() { telemetry.EndSpan(span, err) }()
	defer e.observe(telemetry.StageRender, time.Now())

	if opts.Input == nil {
		opts.Input = res.Table
	}
	if opts.Names == nil && e.cfg.Labels {
		opts.Names = res.Programs
	}
	return render.Render(w, res.Output, opts)
}

func (e *Engine) observe(stage string, start time.Time) {
	e.tel.Metrics.ObserveStage(stage, time.Since(start))
}
