package starlark

import (
	"fmt"

	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"

	"github.com/leapstack-labs/evaltable/pkg/core"
)

// Thread-local keys.
const (
	randLocal      = "evaltable.rand"
	collectorLocal = "evaltable.collector"
)

// declaration is one operator(...) call recorded while a file executes.
type declaration struct {
	name       string
	args       []core.DataType
	result     core.DataType
	variadic   bool
	stochastic bool
	doc        string
	fn         starlark.Callable
}

type collector struct {
	decls []declaration
}

// predeclared returns the names visible to every operator file.
func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"operator": starlark.NewBuiltin("operator", operatorBuiltin),
		"rand":     starlark.NewBuiltin("rand", randBuiltin),
		"math":     starlarkmath.Module,
	}
}

// operatorBuiltin implements
//
//	operator(name, args, result, fn, doc="", variadic=False, stochastic=False)
//
// args lists argument types ("bool" or "contin"); with variadic=True the
// last one repeats.
func operatorBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	c, ok := thread.Local(collectorLocal).(*collector)
	if !ok {
		return nil, fmt.Errorf("%s: operators can only be declared while loading", b.Name())
	}

	var (
		name       string
		argTypes   *starlark.List
		result     starlark.Value
		fn         starlark.Callable
		doc        string
		variadic   bool
		stochastic bool
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"name", &name,
		"args", &argTypes,
		"result", &result,
		"fn", &fn,
		"doc?", &doc,
		"variadic?", &variadic,
		"stochastic?", &stochastic,
	); err != nil {
		return nil, err
	}

	d := declaration{name: name, variadic: variadic, stochastic: stochastic, doc: doc, fn: fn}

	for i := 0; i < argTypes.Len(); i++ {
		t, err := parseType(argTypes.Index(i))
		if err != nil {
			return nil, fmt.Errorf("%s: %s: argument %d: %w", b.Name(), name, i+1, err)
		}
		d.args = append(d.args, t)
	}
	if variadic && len(d.args) == 0 {
		return nil, fmt.Errorf("%s: %s: variadic operators need at least one argument type", b.Name(), name)
	}

	t, err := parseType(result)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: result: %w", b.Name(), name, err)
	}
	d.result = t

	c.decls = append(c.decls, d)
	return starlark.None, nil
}

// randBuiltin draws from the random source of the current evaluation.
func randBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	rng, ok := thread.Local(randLocal).(core.Rand)
	if !ok || rng == nil {
		return nil, fmt.Errorf("%s: only available in operators declared with stochastic=True", b.Name())
	}
	return starlark.Float(rng.Float64()), nil
}
