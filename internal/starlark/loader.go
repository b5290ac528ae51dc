// Package starlark loads user-defined combo operators from Starlark files.
//
// Every *.star file in the operators directory is executed once. Files
// declare operators with the predeclared operator() builtin:
//
//	def _maj(a, b, c):
//	    return (a and b) or (a and c) or (b and c)
//
//	operator(name = "maj", args = ["bool", "bool", "bool"], result = "bool", fn = _maj)
//
// Module globals are frozen after loading, so operator functions may be
// called from many batch workers at once. Each call runs with a budget of
// DefaultMaxSteps execution steps.
package starlark

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/leapstack-labs/evaltable/pkg/core"
	"github.com/leapstack-labs/evaltable/pkg/operator"
	"github.com/leapstack-labs/evaltable/pkg/token"
)

// Loader scans a directory for .star files and turns their declarations
// into operators.
type Loader struct {
	dir    string
	pool   *ThreadPool
	logger *slog.Logger
}

// NewLoader creates a new operator loader for the specified directory.
// If logger is nil, a discard logger is used.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{dir: dir, pool: NewThreadPool(0, 0), logger: logger}
}

// Load executes every .star file (in name order) and returns the declared
// operators. A missing directory yields no operators.
func (l *Loader) Load() ([]*core.Operator, error) {
	if l.dir == "" {
		return nil, nil
	}

	info, err := os.Stat(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			// No operators directory is fine
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access operators directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("operators path is not a directory: %s", l.dir)
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.star"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan operators directory: %w", err)
	}
	sort.Strings(files)

	var ops []*core.Operator
	for _, file := range files {
		fileOps, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		ops = append(ops, fileOps...)
	}
	return ops, nil
}

// LoadInto loads the directory and registers every operator in reg.
func (l *Loader) LoadInto(reg *operator.Registry) ([]*core.Operator, error) {
	ops, err := l.Load()
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if err := reg.Register(op); err != nil {
			return nil, fmt.Errorf("registering starlark operator: %w", err)
		}
	}
	return ops, nil
}

// loadFile executes a single .star file and collects its declarations.
func (l *Loader) loadFile(path string) ([]*core.Operator, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a glob within the operators directory
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	c := &collector{}
	thread := &starlark.Thread{
		Name: "load:" + filepath.Base(path),
		Print: func(_ *starlark.Thread, msg string) {
			l.logger.Debug("starlark print", slog.String("file", path), slog.String("msg", msg))
		},
	}
	thread.SetLocal(collectorLocal, c)

	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, path, content, predeclared())
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}
	globals.Freeze()

	ops := make([]*core.Operator, 0, len(c.decls))
	for _, d := range c.decls {
		if err := validateName(d.name); err != nil {
			return nil, &LoadError{File: path, Message: err.Error()}
		}
		d.fn.Freeze()
		ops = append(ops, l.newOperator(d))
		l.logger.Debug("loaded starlark operator", slog.String("name", d.name), slog.String("file", path))
	}
	return ops, nil
}

func (l *Loader) newOperator(d declaration) *core.Operator {
	arity := core.Fixed(len(d.args))
	if d.variadic {
		arity = core.AtLeast(len(d.args))
	}
	op := &core.Operator{
		Name:       d.name,
		Arity:      arity,
		Args:       d.args,
		Result:     d.result,
		Stochastic: d.stochastic,
		Doc:        d.doc,
	}
	op.Apply = l.apply(d)
	return op
}

// apply wraps a Starlark callable as operator semantics.
func (l *Loader) apply(d declaration) core.ApplyFunc {
	return func(args []core.Value, rng core.Rand) (core.Value, error) {
		sargs := make(starlark.Tuple, len(args))
		for i, a := range args {
			v, err := toStarlark(a)
			if err != nil {
				return core.Value{}, err
			}
			sargs[i] = v
		}

		if !d.stochastic {
			rng = nil
		}
		res, err := l.pool.Call(d.name, d.fn, sargs, rng)
		if err != nil {
			return core.Value{}, err
		}
		return fromStarlark(res, d.result)
	}
}

// validateName checks that a declared name can be written in program text.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("operator name cannot be empty")
	}
	for i := 0; i < len(name); i++ {
		if token.IsSeparator(name[i]) {
			return fmt.Errorf("operator name %q contains a separator", name)
		}
	}
	if name[0] == token.PlaceholderPrefix || name[0] == '!' {
		return fmt.Errorf("operator name %q cannot start with %q", name, name[0])
	}
	if token.LookupWord(name) != token.NAME {
		return fmt.Errorf("operator name %q is a reserved literal", name)
	}
	if _, err := strconv.ParseFloat(name, 64); err == nil && strings.ContainsAny(name[:1], "0123456789.+-") {
		return fmt.Errorf("operator name %q reads as a number", name)
	}
	return nil
}

// LoadError represents an error loading an operator file.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("operators/%s: %s", filepath.Base(e.File), e.Message)
}
