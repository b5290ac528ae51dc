package operator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaltable/pkg/core"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func TestDefaultRegistry(t *testing.T) {
	reg := Default()

	for _, name := range []string{"and", "or", "not", "xor", "+", "*", "-", "/", "log", "exp", "sin", "abs", "sqrt", "0<", "impulse", "contin_if", "rand"} {
		t.Run(name, func(t *testing.T) {
			op, ok := reg.Lookup(name)
			require.True(t, ok)
			assert.Equal(t, name, op.Name)
			assert.NotEmpty(t, op.Doc)
		})
	}

	assert.Equal(t, len(Builtins()), reg.Len())
	assert.IsNonDecreasing(t, reg.Names())
}

func TestDefaultIsIndependent(t *testing.T) {
	a := Default()
	b := Default()

	require.NoError(t, a.Register(&core.Operator{
		Name: "twice", Arity: core.Fixed(1), Args: []core.DataType{core.Continuous}, Result: core.Continuous,
		Apply: func(args []core.Value, _ core.Rand) (core.Value, error) {
			return core.Float(2 * args[0].AsFloat()), nil
		},
	}))

	_, ok := b.Lookup("twice")
	assert.False(t, ok)
}

func TestRegisterSignatureConflict(t *testing.T) {
	reg := Default()
	apply := func(args []core.Value, _ core.Rand) (core.Value, error) { return args[0], nil }

	err := reg.Register(&core.Operator{
		Name: "and", Arity: core.Fixed(2), Args: []core.DataType{core.Boolean}, Result: core.Boolean, Apply: apply,
	})
	var conflict *SignatureConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "and", conflict.Existing.Name)
	assert.Contains(t, err.Error(), "and(boolean...) -> boolean")

	// Same signature replaces the semantics.
	err = reg.Register(&core.Operator{
		Name: "not", Arity: core.Fixed(1), Args: []core.DataType{core.Boolean}, Result: core.Boolean, Apply: apply,
	})
	assert.NoError(t, err)
}

func TestRegisterValidation(t *testing.T) {
	apply := func(args []core.Value, _ core.Rand) (core.Value, error) { return core.Bool(true), nil }

	tests := []struct {
		name string
		op   *core.Operator
	}{
		{"nil", nil},
		{"empty name", &core.Operator{Arity: core.Fixed(0), Result: core.Boolean, Apply: apply}},
		{"no apply", &core.Operator{Name: "x", Arity: core.Fixed(0), Result: core.Boolean}},
		{"no arg types", &core.Operator{Name: "x", Arity: core.Fixed(1), Result: core.Boolean, Apply: apply}},
		{"bad arity", &core.Operator{Name: "x", Arity: core.Arity{Min: 2, Max: 1}, Args: []core.DataType{core.Boolean}, Result: core.Boolean, Apply: apply}},
		{"enumerated result", &core.Operator{Name: "x", Arity: core.Fixed(0), Result: core.Enumerated, Apply: apply}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewRegistry().Register(tt.op))
		})
	}
}

func TestMustLookupUnknown(t *testing.T) {
	reg := Default()

	_, err := reg.MustLookup("nand")
	var unknown *UnknownOperatorError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "nand", unknown.Name)
	assert.Contains(t, unknown.Available, "and")
}

func TestBuiltinSemantics(t *testing.T) {
	reg := Default()
	b := core.Bool
	f := core.Float

	tests := []struct {
		op   string
		args []core.Value
		want core.Value
	}{
		{"and", []core.Value{b(true), b(true), b(false)}, b(false)},
		{"and", []core.Value{b(true)}, b(true)},
		{"or", []core.Value{b(false), b(true)}, b(true)},
		{"or", []core.Value{b(false)}, b(false)},
		{"not", []core.Value{b(false)}, b(true)},
		{"xor", []core.Value{b(true), b(true)}, b(false)},
		{"xor", []core.Value{b(true), b(false)}, b(true)},
		{"+", []core.Value{f(1), f(2), f(3.5)}, f(6.5)},
		{"*", []core.Value{f(2), f(-3)}, f(-6)},
		{"-", []core.Value{f(2), f(5)}, f(-3)},
		{"/", []core.Value{f(1), f(4)}, f(0.25)},
		{"/", []core.Value{f(1), f(0)}, f(math.NaN())},
		{"log", []core.Value{f(1)}, f(0)},
		{"log", []core.Value{f(-1)}, f(math.NaN())},
		{"log", []core.Value{f(0)}, f(math.NaN())},
		{"exp", []core.Value{f(0)}, f(1)},
		{"sin", []core.Value{f(0)}, f(0)},
		{"abs", []core.Value{f(-2)}, f(2)},
		{"sqrt", []core.Value{f(9)}, f(3)},
		{"sqrt", []core.Value{f(-9)}, f(math.NaN())},
		{"0<", []core.Value{f(0.1)}, b(true)},
		{"0<", []core.Value{f(0)}, b(false)},
		{"impulse", []core.Value{b(true)}, f(1)},
		{"impulse", []core.Value{b(false)}, f(0)},
		{"contin_if", []core.Value{b(true), f(1), f(2)}, f(1)},
		{"contin_if", []core.Value{b(false), f(1), f(2)}, f(2)},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			op, ok := reg.Lookup(tt.op)
			require.True(t, ok)
			require.True(t, op.Arity.Accepts(len(tt.args)))

			got, err := op.Apply(tt.args, nil)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestRandOperator(t *testing.T) {
	op, ok := Default().Lookup("rand")
	require.True(t, ok)
	assert.True(t, op.Stochastic)

	got, err := op.Apply(nil, fixedRand(0.25))
	require.NoError(t, err)
	assert.Equal(t, 0.25, got.AsFloat())

	_, err = op.Apply(nil, nil)
	assert.ErrorIs(t, err, ErrNoRand)
}
