// Package state records evaluation runs in a SQLite database.
//
// Each run stores its configuration and, per program, how many cells
// evaluated cleanly, hit a domain error or failed.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when no run matches an ID.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one invocation of the evaluator.
type Run struct {
	ID          string     `yaml:"id"`
	Status      RunStatus  `yaml:"status"`
	StartedAt   time.Time  `yaml:"started_at"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty"`
	Error       string     `yaml:"error,omitempty"`

	Source       string `yaml:"source"`
	Rows         int    `yaml:"rows"`
	Columns      int    `yaml:"columns"`
	DispatchType string `yaml:"dispatch_type"`
	Seed         uint64 `yaml:"seed"`
	NaNPolicy    string `yaml:"nan_policy"`
	Workers      int    `yaml:"workers"`
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// ProgramResult summarizes one program's column within a run.
type ProgramResult struct {
	Position     int    `yaml:"position"`
	Program      string `yaml:"program"`
	OK           int    `yaml:"ok"`
	DomainErrors int    `yaml:"domain_errors"`
	Failed       int    `yaml:"failed"`
	True         int    `yaml:"true"`
	FirstError   string `yaml:"first_error,omitempty"`
}

// Store persists run history.
type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	CompleteRun(ctx context.Context, id string, status RunStatus, errMsg string) error
	RecordPrograms(ctx context.Context, runID string, results []ProgramResult) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	GetPrograms(ctx context.Context, runID string) ([]ProgramResult, error)
	Close() error
}
