// Package eval implements the typed evaluator for combo programs.
//
// Two specializations share one algorithm: a Boolean evaluator used for
// truth tables and a Continuous evaluator used for real-valued tables.
// The batch driver picks one per table from its dispatch type.
package eval

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/evaltable/pkg/core"
)

// NaNPolicy selects what happens when an operator yields NaN.
type NaNPolicy string

const (
	// NaNPropagate returns NaN as the value; callers flag the cell.
	NaNPropagate NaNPolicy = "propagate"
	// NaNFail turns NaN into a *DomainError.
	NaNFail NaNPolicy = "fail"
)

// ParseNaNPolicy converts a configuration string to a NaNPolicy.
// The empty string selects NaNPropagate.
func ParseNaNPolicy(s string) (NaNPolicy, error) {
	switch NaNPolicy(strings.ToLower(s)) {
	case "", NaNPropagate:
		return NaNPropagate, nil
	case NaNFail:
		return NaNFail, nil
	default:
		return "", fmt.Errorf("invalid nan policy %q (expected propagate or fail)", s)
	}
}

// Domain is the set of Go types an evaluator can produce.
type Domain interface {
	~bool | ~float64
}

// Option configures an Evaluator.
type Option func(*options)

type options struct {
	nan NaNPolicy
}

// WithNaNPolicy sets the NaN policy. The default is NaNPropagate.
func WithNaNPolicy(p NaNPolicy) Option {
	return func(o *options) {
		if p != "" {
			o.nan = p
		}
	}
}

// Evaluator computes a program's value for one row. It holds no per-row
// state and may be shared by concurrent goroutines.
type Evaluator[T Domain] struct {
	result core.DataType
	unwrap func(core.Value) T
	nan    NaNPolicy
}

func newEvaluator[T Domain](result core.DataType, unwrap func(core.Value) T, opts []Option) *Evaluator[T] {
	o := options{nan: NaNPropagate}
	for _, opt := range opts {
		opt(&o)
	}
	return &Evaluator[T]{result: result, unwrap: unwrap, nan: o.nan}
}

// NewBoolean returns the evaluator for Boolean tables.
func NewBoolean(opts ...Option) *Evaluator[bool] {
	return newEvaluator(core.Boolean, core.Value.AsBool, opts)
}

// NewContinuous returns the evaluator for Continuous tables.
func NewContinuous(opts ...Option) *Evaluator[float64] {
	return newEvaluator(core.Continuous, core.Value.AsFloat, opts)
}

// Type returns the data type the evaluator produces.
func (e *Evaluator[T]) Type() core.DataType {
	return e.result
}

// NaNPolicy returns the configured NaN policy.
func (e *Evaluator[T]) NaNPolicy() NaNPolicy {
	return e.nan
}

// Evaluate computes node against env and returns the result in the
// evaluator's domain.
func (e *Evaluator[T]) Evaluate(node core.Node, env *Environment) (T, error) {
	v, err := e.EvaluateValue(node, env)
	if err != nil {
		var zero T
		return zero, err
	}
	return e.unwrap(v), nil
}

// EvaluateValue computes node against env. The result is checked against
// the evaluator's domain.
func (e *Evaluator[T]) EvaluateValue(node core.Node, env *Environment) (core.Value, error) {
	v, err := e.eval(node, env)
	if err != nil {
		return core.Value{}, err
	}
	if v.Type() != e.result {
		return core.Value{}, &TypeMismatchError{Operator: ResultOperator, Want: e.result, Got: v.Type()}
	}
	return v, nil
}

// eval applies the evaluation rules by structural recursion. Every child is
// evaluated left to right before the operator applies; nothing
// short-circuits.
func (e *Evaluator[T]) eval(node core.Node, env *Environment) (core.Value, error) {
	switch n := node.(type) {
	case core.Constant:
		return n.Value, nil

	case core.InputRef:
		return env.Lookup(n.Index)

	case *core.Call:
		args := make([]core.Value, len(n.Args))
		for i, child := range n.Args {
			v, err := e.eval(child, env)
			if err != nil {
				return core.Value{}, err
			}
			if want := n.Op.ArgType(i); v.Type() != want {
				return core.Value{}, &TypeMismatchError{Operator: n.Op.Name, Arg: i + 1, Want: want, Got: v.Type()}
			}
			args[i] = v
		}

		v, err := n.Op.Apply(args, env.Rand())
		if err != nil {
			return core.Value{}, fmt.Errorf("%s: %w", n.Op.Name, err)
		}
		if v.Type() != n.Op.Result {
			return core.Value{}, &TypeMismatchError{Operator: n.Op.Name, Want: n.Op.Result, Got: v.Type()}
		}
		if e.nan == NaNFail && v.IsNaN() {
			return core.Value{}, &DomainError{Operator: n.Op.Name, Args: args}
		}
		return v, nil

	case nil:
		return core.Value{}, fmt.Errorf("nil expression")

	default:
		return core.Value{}, fmt.Errorf("unsupported node %T", node)
	}
}
