package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/evaltable/pkg/table"
)

func init() {
	Register("csv", func(logger *slog.Logger) Source { return &CSV{logger: logger} })
}

// CSV reads delimited text from a file or standard input.
type CSV struct {
	logger *slog.Logger
}

// Load parses cfg.Path. Files ending in .tsv default to tab delimiters.
func (s *CSV) Load(_ context.Context, cfg Config) (*table.Table, error) {
	opts := cfg.Table
	if opts.Delimiter == 0 && strings.EqualFold(filepath.Ext(cfg.Path), ".tsv") {
		opts.Delimiter = '\t'
	}

	var r io.Reader
	if cfg.Path == "" || cfg.Path == "-" {
		r = cfg.Stdin
		if r == nil {
			r = os.Stdin
		}
		s.logger.Debug("reading table from stdin")
	} else {
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open table: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
		s.logger.Debug("reading table", slog.String("path", cfg.Path))
	}

	t, err := table.Parse(r, opts)
	if err != nil {
		if cfg.Path != "" && cfg.Path != "-" {
			return nil, fmt.Errorf("%s: %w", cfg.Path, err)
		}
		return nil, err
	}
	return t, nil
}
