package starlark

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/evaltable/pkg/core"
)

// toStarlark converts an operator argument. Only Boolean and Continuous
// values reach operators.
func toStarlark(v core.Value) (starlark.Value, error) {
	switch v.Type() {
	case core.Boolean:
		return starlark.Bool(v.AsBool()), nil
	case core.Continuous:
		return starlark.Float(v.AsFloat()), nil
	case core.Enumerated:
		return starlark.String(v.AsString()), nil
	default:
		return nil, fmt.Errorf("cannot pass %s value to starlark", v.Type())
	}
}

// fromStarlark converts an operator result to the declared type. Integers
// are accepted for continuous results.
func fromStarlark(v starlark.Value, want core.DataType) (core.Value, error) {
	switch want {
	case core.Boolean:
		if b, ok := v.(starlark.Bool); ok {
			return core.Bool(bool(b)), nil
		}
	case core.Continuous:
		switch x := v.(type) {
		case starlark.Float:
			return core.Float(float64(x)), nil
		case starlark.Int:
			return core.Float(float64(x.Float())), nil
		}
	}
	return core.Value{}, fmt.Errorf("returned %s, declared %s", v.Type(), want)
}

// parseType reads a type name from an operator declaration.
func parseType(v starlark.Value) (core.DataType, error) {
	s, ok := starlark.AsString(v)
	if !ok {
		return core.Unknown, fmt.Errorf("type must be a string, got %s", v.Type())
	}
	t, ok := core.ParseDataType(s)
	if !ok || !t.IsDispatchable() {
		return core.Unknown, fmt.Errorf("unsupported type %q (use bool or contin)", s)
	}
	return t, nil
}
