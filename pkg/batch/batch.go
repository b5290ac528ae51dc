// Package batch evaluates many programs against one table, row-parallel,
// producing one output column per program in program order.
package batch

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/evaltable/pkg/core"
	"github.com/leapstack-labs/evaltable/pkg/eval"
	"github.com/leapstack-labs/evaltable/pkg/table"
)

// DefaultSeed matches the command line default.
const DefaultSeed = 1

// RandFactory derives the random source for one row from the run seed.
type RandFactory func(seed uint64, row int) core.Rand

// PCGRand is the default RandFactory: a PCG generator keyed by (seed, row),
// so a row's draws do not depend on which worker evaluates it.
func PCGRand(seed uint64, row int) core.Rand {
	return rand.New(rand.NewPCG(seed, uint64(row)))
}

// Options configures EvaluateAll.
type Options struct {
	// Workers bounds the number of concurrent row chunks.
	// Zero means runtime.NumCPU(); 1 evaluates sequentially.
	Workers int
	// Seed feeds stochastic operators.
	Seed uint64
	// NaN is the domain-error policy. Empty means eval.NaNPropagate.
	NaN eval.NaNPolicy
	// RandFactory replaces PCGRand when set.
	RandFactory RandFactory
	// Logger receives per-cell failures at debug level.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.NaN == "" {
		o.NaN = eval.NaNPropagate
	}
	if o.RandFactory == nil {
		o.RandFactory = PCGRand
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// EvaluateAll evaluates every tree against every row of t.
//
// The table's dispatch type selects the evaluator once for the whole batch;
// an unsupported dispatch type is returned as an error before anything is
// evaluated. Per-cell failures are recorded in the output and never stop
// other cells. Only context cancellation aborts the batch.
func EvaluateAll(ctx context.Context, trees []core.Node, t *table.Table, opts Options) (*Output, error) {
	opts = opts.withDefaults()

	typ, err := t.DispatchType()
	if err != nil {
		return nil, err
	}

	out := &Output{
		Programs: make([]string, len(trees)),
		Type:     typ,
		Rows:     t.RowCount(),
		Columns:  make([][]Cell, len(trees)),
	}
	for p, tree := range trees {
		out.Programs[p] = core.Format(tree)
		out.Columns[p] = make([]Cell, t.RowCount())
	}

	switch typ {
	case core.Boolean:
		err = run(ctx, eval.NewBoolean(eval.WithNaNPolicy(opts.NaN)), trees, t, opts, out)
	default:
		err = run(ctx, eval.NewContinuous(eval.WithNaNPolicy(opts.NaN)), trees, t, opts, out)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// cancelCheckInterval is how many rows a worker evaluates between
// context checks.
const cancelCheckInterval = 64

func run[T eval.Domain](ctx context.Context, ev *eval.Evaluator[T], trees []core.Node, t *table.Table, opts Options, out *Output) error {
	stochastic := make([]bool, len(trees))
	for p, tree := range trees {
		stochastic[p] = core.IsStochastic(tree)
	}

	rows := t.RowCount()
	chunk := (rows + opts.Workers - 1) / opts.Workers
	if chunk < 1 {
		chunk = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for start := 0; start < rows; start += chunk {
		end := min(start+chunk, rows)
		g.Go(func() error {
			for r := start; r < end; r++ {
				if (r-start)%cancelCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}

				env := eval.NewEnvironment(t.Row(r), nil)
				for p, tree := range trees {
					rowEnv := env
					if stochastic[p] {
						// Fresh per-program stream so program order never
						// changes what a program draws.
						rowEnv = env.WithRand(opts.RandFactory(opts.Seed, r))
					}
					v, err := ev.EvaluateValue(tree, rowEnv)
					cell := newCell(v, err)
					if cell.Status == Failed {
						opts.Logger.Debug("cell evaluation failed",
							slog.Int("program", p+1),
							slog.Int("row", r+1),
							slog.String("error", err.Error()))
					}
					out.Columns[p][r] = cell
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
