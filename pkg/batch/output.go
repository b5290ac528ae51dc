package batch

import (
	"github.com/leapstack-labs/evaltable/pkg/core"
)

// CellStatus classifies one (program, row) result.
type CellStatus int

const (
	// OK is a valid result.
	OK CellStatus = iota
	// DomainError is a NaN result kept under the propagate policy.
	DomainError
	// Failed is an evaluation error. The cell has no value.
	Failed
)

// String returns the status name used in logs and JSON output.
func (s CellStatus) String() string {
	switch s {
	case OK:
		return "ok"
	case DomainError:
		return "domain_error"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Cell is one output value.
type Cell struct {
	Value  core.Value
	Status CellStatus
	Err    error
}

func newCell(v core.Value, err error) Cell {
	switch {
	case err != nil:
		return Cell{Status: Failed, Err: err}
	case v.IsNaN():
		return Cell{Value: v, Status: DomainError}
	default:
		return Cell{Value: v, Status: OK}
	}
}

// Output holds one column per program, in program order, each with one cell
// per table row.
type Output struct {
	Programs []string
	Type     core.DataType
	Rows     int
	Columns  [][]Cell
}

// Cell returns the result of program p for row r.
func (o *Output) Cell(p, r int) Cell {
	return o.Columns[p][r]
}

// ProgramSummary counts the cell outcomes of one program.
type ProgramSummary struct {
	Program      string
	OK           int
	DomainErrors int
	Failed       int
	// True counts true results in Boolean batches.
	True int
	// FirstError is the error of the first failed row, if any.
	FirstError error
}

// Summary returns per-program outcome counts in program order.
func (o *Output) Summary() []ProgramSummary {
	out := make([]ProgramSummary, len(o.Columns))
	for p, col := range o.Columns {
		s := ProgramSummary{Program: o.Programs[p]}
		for _, c := range col {
			switch c.Status {
			case OK:
				s.OK++
				if o.Type == core.Boolean && c.Value.AsBool() {
					s.True++
				}
			case DomainError:
				s.DomainErrors++
			case Failed:
				s.Failed++
				if s.FirstError == nil {
					s.FirstError = c.Err
				}
			}
		}
		out[p] = s
	}
	return out
}

// Totals sums the per-program counts.
func (o *Output) Totals() (ok, domainErrors, failed int) {
	for _, s := range o.Summary() {
		ok += s.OK
		domainErrors += s.DomainErrors
		failed += s.Failed
	}
	return ok, domainErrors, failed
}
