// Package engine runs the evaluation pipeline: load a table, compile
// programs against it, evaluate them row-parallel and render the result.
// It owns the operator registry (builtins plus Starlark operators), the
// optional run-history store and the telemetry hooks around each stage.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/evaltable/internal/source"
	"github.com/leapstack-labs/evaltable/internal/starlark"
	"github.com/leapstack-labs/evaltable/internal/state"
	"github.com/leapstack-labs/evaltable/internal/telemetry"
	"github.com/leapstack-labs/evaltable/pkg/eval"
	"github.com/leapstack-labs/evaltable/pkg/operator"
)

// Config holds engine configuration.
type Config struct {
	// Source describes the input table.
	Source source.Config
	// Labels makes programs use #label references resolved against the header.
	Labels bool
	// OperatorsDir holds *.star files defining extra operators (optional).
	OperatorsDir string

	// Workers, Seed and NaN are passed to the batch driver.
	Workers int
	Seed    uint64
	NaN     eval.NaNPolicy

	// StatePath is the SQLite run-history database. Empty disables history.
	StatePath string

	// Telemetry receives spans and metrics (optional, disabled if nil).
	Telemetry *telemetry.Telemetry
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Engine evaluates programs against tables.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	registry *operator.Registry
	store    state.Store
	tel      *telemetry.Telemetry
	custom   []string
}

// New builds the operator registry and opens the history store.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tel := cfg.Telemetry
	if tel == nil {
		tel = telemetry.Disabled()
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		registry: operator.Default(),
		tel:      tel,
	}

	if cfg.OperatorsDir != "" {
		ops, err := starlark.NewLoader(cfg.OperatorsDir, logger).LoadInto(e.registry)
		if err != nil {
			return nil, fmt.Errorf("failed to load operators: %w", err)
		}
		for _, op := range ops {
			e.custom = append(e.custom, op.Name)
		}
		logger.Debug("loaded starlark operators", slog.String("dir", cfg.OperatorsDir), slog.Int("count", len(ops)))
	}

	if cfg.StatePath != "" {
		store := state.NewSQLiteStore(logger)
		if err := store.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		e.store = store
	}

	return e, nil
}

// Registry returns the operators programs may use.
func (e *Engine) Registry() *operator.Registry { return e.registry }

// CustomOperators returns the names of operators loaded from OperatorsDir.
func (e *Engine) CustomOperators() []string { return e.custom }

// Store returns the history store, or nil when history is disabled.
func (e *Engine) Store() state.Store { return e.store }

// Labels reports whether programs use label references.
func (e *Engine) Labels() bool { return e.cfg.Labels }

// SetLabels switches between label and placeholder program form.
func (e *Engine) SetLabels(on bool) { e.cfg.Labels = on }

// Close releases the history store.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
