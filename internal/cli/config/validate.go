package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/evaltable/internal/source"
	"github.com/leapstack-labs/evaltable/pkg/eval"
	"github.com/leapstack-labs/evaltable/pkg/render"
)

// Validate checks enumerated and numeric fields.
func (c *Config) Validate() error {
	if _, _, err := render.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w\nHint: set format to one of %s", err, strings.Join(render.Formats, ", "))
	}
	if _, err := eval.ParseNaNPolicy(c.NaNPolicy); err != nil {
		return err
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	if c.Target < 1 {
		return fmt.Errorf("target must be a 1-based column index, got %d", c.Target)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Source.Type != "" && !source.IsRegistered(c.Source.Type) {
		return &source.UnknownSourceError{Type: c.Source.Type, Available: source.List()}
	}
	if c.Source.Type == "postgres" && c.Source.DSN == "" {
		return fmt.Errorf("source.dsn is required for postgres sources\nHint: set source.dsn in %s or EVALTABLE_SOURCE__DSN", DefaultConfigName)
	}
	return nil
}

// DelimiterRune returns the input field separator. "tab" and `\t` mean a
// tab character.
func (c *Config) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	if r == '"' || r == '\n' || r == '\r' {
		return 0, fmt.Errorf("invalid delimiter %q", c.Delimiter)
	}
	return r, nil
}
