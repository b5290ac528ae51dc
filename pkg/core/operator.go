package core

import "fmt"

// Rand is the seeded random source consumed by stochastic operators.
// It is injected through the evaluation environment, never created by the evaluator.
type Rand interface {
	Float64() float64
}

// Variadic marks an Arity without an upper bound.
const Variadic = -1

// Arity is the number of children an operator accepts.
type Arity struct {
	Min int
	Max int // Variadic for no upper bound
}

// Fixed returns an arity accepting exactly n children.
func Fixed(n int) Arity {
	return Arity{Min: n, Max: n}
}

// AtLeast returns a variadic arity accepting n or more children.
func AtLeast(n int) Arity {
	return Arity{Min: n, Max: Variadic}
}

// Accepts reports whether n children satisfy the arity.
func (a Arity) Accepts(n int) bool {
	if n < a.Min {
		return false
	}
	return a.Max == Variadic || n <= a.Max
}

// IsVariadic reports whether the arity has no upper bound.
func (a Arity) IsVariadic() bool {
	return a.Max == Variadic
}

// String renders the arity for messages: "2", "1+", "0..2".
func (a Arity) String() string {
	switch {
	case a.Max == Variadic:
		return fmt.Sprintf("%d+", a.Min)
	case a.Min == a.Max:
		return fmt.Sprintf("%d", a.Min)
	default:
		return fmt.Sprintf("%d..%d", a.Min, a.Max)
	}
}

// ApplyFunc is an operator's semantic function. Arguments have already been
// checked against the operator's declared argument types.
type ApplyFunc func(args []Value, rng Rand) (Value, error)

// Operator is the signature and semantics of a named operator.
// An operator's arity and types never change once registered.
type Operator struct {
	// Name is the token used in program text.
	Name string
	// Arity is the accepted child count.
	Arity Arity
	// Args holds the declared argument types. For variadic operators the
	// last entry applies to every remaining argument.
	Args []DataType
	// Result is the type of the value Apply returns.
	Result DataType
	// Stochastic operators draw from the environment's Rand.
	Stochastic bool
	// Doc is a one-line description shown by the operators command.
	Doc string
	// Apply computes the result.
	Apply ApplyFunc
}

// ArgType returns the declared type of the i-th argument.
func (o *Operator) ArgType(i int) DataType {
	if len(o.Args) == 0 {
		return Unknown
	}
	if i < len(o.Args) {
		return o.Args[i]
	}
	return o.Args[len(o.Args)-1]
}

// SameSignature reports whether two operators share name, arity and types.
func (o *Operator) SameSignature(other *Operator) bool {
	if o.Name != other.Name || o.Arity != other.Arity || o.Result != other.Result {
		return false
	}
	if o.Stochastic != other.Stochastic || len(o.Args) != len(other.Args) {
		return false
	}
	for i := range o.Args {
		if o.Args[i] != other.Args[i] {
			return false
		}
	}
	return true
}

// Signature renders the operator as "name(boolean, boolean...) -> boolean".
func (o *Operator) Signature() string {
	s := o.Name + "("
	for i, t := range o.Args {
		if i > 0 {
			s += ", "
		}
		s += t.String()
	}
	if o.Arity.IsVariadic() && len(o.Args) > 0 {
		s += "..."
	}
	return s + ") -> " + o.Result.String()
}
