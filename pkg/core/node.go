package core

import (
	"strconv"
	"strings"
)

// Node is a node of an expression tree. Trees are immutable once built and
// may be shared across rows, evaluations and goroutines.
type Node interface {
	node()
	// String renders the node in canonical prefix notation.
	String() string
}

// Call applies an operator to an ordered list of children.
type Call struct {
	Op   *Operator
	Args []Node
}

// Constant is a typed literal leaf.
type Constant struct {
	Value Value
}

// InputRef is a positional placeholder leaf. Index is 1-based.
type InputRef struct {
	Index int
}

func (*Call) node()    {}
func (Constant) node() {}
func (InputRef) node() {}

// Name returns the operator name.
func (c *Call) Name() string {
	return c.Op.Name
}

func (c *Call) String() string {
	var b strings.Builder
	writeNode(&b, c)
	return b.String()
}

func (c Constant) String() string {
	return c.Value.String()
}

func (r InputRef) String() string {
	return "#" + strconv.Itoa(r.Index)
}

func writeNode(b *strings.Builder, n Node) {
	call, ok := n.(*Call)
	if !ok {
		b.WriteString(n.String())
		return
	}
	b.WriteString(call.Op.Name)
	b.WriteByte('(')
	for i, arg := range call.Args {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeNode(b, arg)
	}
	b.WriteByte(')')
}

// Format renders a tree in canonical prefix notation, e.g. "and(#1 #2)".
func Format(n Node) string {
	if n == nil {
		return ""
	}
	return n.String()
}

// Equal reports whether two trees are structurally identical: same operator
// names in the same order, equal constants and equal placeholder indices.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Call:
		y, ok := b.(*Call)
		if !ok || x.Op.Name != y.Op.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case Constant:
		y, ok := b.(Constant)
		return ok && x.Value.Equal(y.Value)
	case InputRef:
		y, ok := b.(InputRef)
		return ok && x.Index == y.Index
	default:
		return a == nil && b == nil
	}
}

// Walk visits n and its descendants depth-first, left to right.
// Returning false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	if call, ok := n.(*Call); ok {
		for _, arg := range call.Args {
			Walk(arg, fn)
		}
	}
}

// MaxInputIndex returns the largest placeholder index referenced by n, or 0.
func MaxInputIndex(n Node) int {
	max := 0
	Walk(n, func(n Node) bool {
		if ref, ok := n.(InputRef); ok && ref.Index > max {
			max = ref.Index
		}
		return true
	})
	return max
}

// IsStochastic reports whether any operator in n draws random numbers.
func IsStochastic(n Node) bool {
	found := false
	Walk(n, func(n Node) bool {
		if call, ok := n.(*Call); ok && call.Op.Stochastic {
			found = true
		}
		return !found
	})
	return found
}
