package eval

import "github.com/leapstack-labs/evaltable/pkg/core"

// Environment binds placeholder indices to the values of one row, plus the
// random source stochastic operators draw from. It is read-only and belongs
// to a single row evaluation.
type Environment struct {
	values []core.Value
	rng    core.Rand
}

// NewEnvironment binds values to #1..#len(values).
func NewEnvironment(values []core.Value, rng core.Rand) *Environment {
	return &Environment{values: values, rng: rng}
}

// WithRand returns an environment sharing e's values with a different
// random source.
func (e *Environment) WithRand(rng core.Rand) *Environment {
	return &Environment{values: e.values, rng: rng}
}

// Width returns the number of bound placeholders.
func (e *Environment) Width() int {
	return len(e.values)
}

// Rand returns the row's random source, which may be nil.
func (e *Environment) Rand() core.Rand {
	return e.rng
}

// Lookup returns the value bound to the 1-based placeholder index.
func (e *Environment) Lookup(index int) (core.Value, error) {
	if index < 1 || index > len(e.values) {
		return core.Value{}, &UnboundPlaceholderError{Index: index, Width: len(e.values)}
	}
	v := e.values[index-1]
	if v.IsMissing() {
		return core.Value{}, &MissingValueError{Index: index}
	}
	return v, nil
}
