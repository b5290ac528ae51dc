// Package core defines the shared language of the evaltable system.
//
// This package contains:
//   - Data types and typed values (DataType, Value)
//   - Expression tree nodes (Call, Constant, InputRef)
//   - Operator definitions (Operator, Arity) and the Rand capability
//   - Errors shared by the table, parser and evaluator packages
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
