// Package operator provides the operator registry consulted by the parser
// (arity and shape) and by the evaluator (argument types and semantics).
package operator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/evaltable/pkg/core"
)

// Registry maps operator names to their definitions.
// It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]*core.Operator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]*core.Operator)}
}

// Default returns a new registry holding every builtin operator.
// Each call returns an independent registry so extensions never leak between runs.
func Default() *Registry {
	r := NewRegistry()
	for _, op := range Builtins() {
		// Builtins are distinct by construction
		_ = r.Register(op)
	}
	return r
}

// Register adds an operator. Registering a name that already exists fails
// with SignatureConflictError unless the signature is identical, in which
// case the new semantics replace the old ones.
func (r *Registry) Register(op *core.Operator) error {
	if err := validate(op); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.ops[op.Name]; ok && !existing.SameSignature(op) {
		return &SignatureConflictError{Existing: existing, Proposed: op}
	}
	r.ops[op.Name] = op
	return nil
}

// Lookup returns the operator registered under name.
func (r *Registry) Lookup(name string) (*core.Operator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// MustLookup returns the operator registered under name or an UnknownOperatorError.
func (r *Registry) MustLookup(name string) (*core.Operator, error) {
	if op, ok := r.Lookup(name); ok {
		return op, nil
	}
	return nil, &UnknownOperatorError{Name: name, Available: r.Names()}
}

// Names returns all registered operator names (sorted).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all registered operators sorted by name.
func (r *Registry) List() []*core.Operator {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	ops := make([]*core.Operator, len(names))
	for i, name := range names {
		ops[i] = r.ops[name]
	}
	return ops
}

// Len returns the number of registered operators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ops)
}

func validate(op *core.Operator) error {
	switch {
	case op == nil:
		return fmt.Errorf("operator is nil")
	case op.Name == "":
		return fmt.Errorf("operator name is required")
	case op.Apply == nil:
		return fmt.Errorf("operator %q has no semantics", op.Name)
	case op.Arity.Min < 0 || (!op.Arity.IsVariadic() && op.Arity.Max < op.Arity.Min):
		return fmt.Errorf("operator %q has invalid arity %s", op.Name, op.Arity)
	case op.Arity.Min > 0 || op.Arity.IsVariadic():
		if len(op.Args) == 0 {
			return fmt.Errorf("operator %q declares no argument types", op.Name)
		}
	}
	if !op.Result.IsDispatchable() {
		return fmt.Errorf("operator %q has unsupported result type %s", op.Name, op.Result)
	}
	return nil
}

// UnknownOperatorError is returned when a name is not registered.
type UnknownOperatorError struct {
	Name      string
	Available []string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator %q\nAvailable operators: %v", e.Name, e.Available)
}

// SignatureConflictError is returned when a registration would change an
// existing operator's arity or types.
type SignatureConflictError struct {
	Existing *core.Operator
	Proposed *core.Operator
}

func (e *SignatureConflictError) Error() string {
	return fmt.Sprintf("operator %q is already registered as %s, cannot redefine as %s",
		e.Existing.Name, e.Existing.Signature(), e.Proposed.Signature())
}
