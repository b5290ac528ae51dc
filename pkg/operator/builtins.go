package operator

import (
	"errors"
	"math"

	"github.com/leapstack-labs/evaltable/pkg/core"
)

// ErrNoRand is returned by stochastic operators evaluated without a generator.
var ErrNoRand = errors.New("stochastic operator evaluated without a random source")

var (
	boolArg   = []core.DataType{core.Boolean}
	continArg = []core.DataType{core.Continuous}
)

// Builtins returns fresh definitions of every builtin operator.
func Builtins() []*core.Operator {
	return []*core.Operator{
		// Boolean
		{Name: "and", Arity: core.AtLeast(1), Args: boolArg, Result: core.Boolean,
			Doc: "true when every argument is true", Apply: boolFold(true, func(acc, b bool) bool { return acc && b })},
		{Name: "or", Arity: core.AtLeast(1), Args: boolArg, Result: core.Boolean,
			Doc: "true when any argument is true", Apply: boolFold(false, func(acc, b bool) bool { return acc || b })},
		{Name: "not", Arity: core.Fixed(1), Args: boolArg, Result: core.Boolean,
			Doc: "logical negation", Apply: func(args []core.Value, _ core.Rand) (core.Value, error) {
				return core.Bool(!args[0].AsBool()), nil
			}},
		{Name: "xor", Arity: core.Fixed(2), Args: boolArg, Result: core.Boolean,
			Doc: "true when exactly one argument is true", Apply: func(args []core.Value, _ core.Rand) (core.Value, error) {
				return core.Bool(args[0].AsBool() != args[1].AsBool()), nil
			}},

		// Continuous
		{Name: "+", Arity: core.AtLeast(1), Args: continArg, Result: core.Continuous,
			Doc: "sum of the arguments", Apply: floatFold(0, func(acc, x float64) float64 { return acc + x })},
		{Name: "*", Arity: core.AtLeast(1), Args: continArg, Result: core.Continuous,
			Doc: "product of the arguments", Apply: floatFold(1, func(acc, x float64) float64 { return acc * x })},
		{Name: "-", Arity: core.Fixed(2), Args: continArg, Result: core.Continuous,
			Doc: "difference", Apply: binary(func(a, b float64) float64 { return a - b })},
		{Name: "/", Arity: core.Fixed(2), Args: continArg, Result: core.Continuous,
			Doc: "quotient, nan when dividing by zero", Apply: binary(func(a, b float64) float64 {
				if b == 0 {
					return math.NaN()
				}
				return a / b
			})},
		{Name: "log", Arity: core.Fixed(1), Args: continArg, Result: core.Continuous,
			Doc: "natural logarithm, nan for non-positive input", Apply: unary(func(x float64) float64 {
				if x <= 0 {
					return math.NaN()
				}
				return math.Log(x)
			})},
		{Name: "exp", Arity: core.Fixed(1), Args: continArg, Result: core.Continuous,
			Doc: "e raised to the argument", Apply: unary(math.Exp)},
		{Name: "sin", Arity: core.Fixed(1), Args: continArg, Result: core.Continuous,
			Doc: "sine", Apply: unary(math.Sin)},
		{Name: "abs", Arity: core.Fixed(1), Args: continArg, Result: core.Continuous,
			Doc: "absolute value", Apply: unary(math.Abs)},
		{Name: "sqrt", Arity: core.Fixed(1), Args: continArg, Result: core.Continuous,
			Doc: "square root, nan for negative input", Apply: unary(func(x float64) float64 {
				if x < 0 {
					return math.NaN()
				}
				return math.Sqrt(x)
			})},

		// Mixed
		{Name: "0<", Arity: core.Fixed(1), Args: continArg, Result: core.Boolean,
			Doc: "true when the argument is strictly positive", Apply: func(args []core.Value, _ core.Rand) (core.Value, error) {
				return core.Bool(args[0].AsFloat() > 0), nil
			}},
		{Name: "impulse", Arity: core.Fixed(1), Args: boolArg, Result: core.Continuous,
			Doc: "1 when the argument is true, 0 otherwise", Apply: func(args []core.Value, _ core.Rand) (core.Value, error) {
				if args[0].AsBool() {
					return core.Float(1), nil
				}
				return core.Float(0), nil
			}},
		{Name: "contin_if", Arity: core.Fixed(3), Args: []core.DataType{core.Boolean, core.Continuous, core.Continuous},
			Result: core.Continuous, Doc: "second argument when the first is true, third otherwise",
			Apply: func(args []core.Value, _ core.Rand) (core.Value, error) {
				if args[0].AsBool() {
					return args[1], nil
				}
				return args[2], nil
			}},
		{Name: "rand", Arity: core.Fixed(0), Result: core.Continuous, Stochastic: true,
			Doc: "uniform random number in [0, 1)", Apply: func(_ []core.Value, rng core.Rand) (core.Value, error) {
				if rng == nil {
					return core.Value{}, ErrNoRand
				}
				return core.Float(rng.Float64()), nil
			}},
	}
}

func boolFold(init bool, fn func(acc, b bool) bool) core.ApplyFunc {
	return func(args []core.Value, _ core.Rand) (core.Value, error) {
		acc := init
		for _, a := range args {
			acc = fn(acc, a.AsBool())
		}
		return core.Bool(acc), nil
	}
}

func floatFold(init float64, fn func(acc, x float64) float64) core.ApplyFunc {
	return func(args []core.Value, _ core.Rand) (core.Value, error) {
		acc := init
		for _, a := range args {
			acc = fn(acc, a.AsFloat())
		}
		return core.Float(acc), nil
	}
}

func unary(fn func(float64) float64) core.ApplyFunc {
	return func(args []core.Value, _ core.Rand) (core.Value, error) {
		return core.Float(fn(args[0].AsFloat())), nil
	}
}

func binary(fn func(a, b float64) float64) core.ApplyFunc {
	return func(args []core.Value, _ core.Rand) (core.Value, error) {
		return core.Float(fn(args[0].AsFloat(), args[1].AsFloat())), nil
	}
}
