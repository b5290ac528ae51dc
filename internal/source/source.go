// Package source loads input tables from delimited files or SQL databases.
//
// Sources register themselves by name; the CLI picks one from the
// source.type configuration key. SQL sources convert query results to text
// and run the same type inference as delimited input.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/evaltable/pkg/table"
)

// Config describes where a table comes from.
type Config struct {
	// Type is the registered source name ("csv", "duckdb", "sqlite", "postgres").
	Type string
	// Path is the input file for csv ("-" for stdin), the database file
	// for sqlite and duckdb, or a data file duckdb queries directly.
	Path string
	// DSN is the connection string for network databases.
	DSN string
	// Query selects the table from SQL sources.
	Query string
	// Table controls parsing and type inference.
	Table table.Options
	// Stdin replaces os.Stdin for the "-" path.
	Stdin io.Reader
}

// Source loads a table.
type Source interface {
	Load(ctx context.Context, cfg Config) (*table.Table, error)
}

// Factory creates a source. A nil logger means a discard logger.
type Factory func(*slog.Logger) Source

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a source factory to the registry.
// Called by source implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a source factory by name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates the source named by cfg.Type. An empty type means "csv".
func New(cfg Config, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	name := cfg.Type
	if name == "" {
		name = "csv"
	}

	factory, ok := Get(name)
	if !ok {
		return nil, &UnknownSourceError{Type: name, Available: List()}
	}
	return factory(logger), nil
}

// Load is a convenience for New followed by Source.Load.
func Load(ctx context.Context, cfg Config, logger *slog.Logger) (*table.Table, error) {
	src, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return src.Load(ctx, cfg)
}

// List returns all registered source names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a source type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownSourceError is returned when an unknown source type is requested.
type UnknownSourceError struct {
	Type      string
	Available []string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source type %q\nAvailable sources: %v\nHint: Check source.type in evaltable.yaml", e.Type, e.Available)
}
