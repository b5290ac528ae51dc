package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/evaltable/internal/cli/config"
	"github.com/leapstack-labs/evaltable/internal/engine"
	"github.com/leapstack-labs/evaltable/internal/source"
	"github.com/leapstack-labs/evaltable/internal/telemetry"
	"github.com/leapstack-labs/evaltable/pkg/eval"
	"github.com/leapstack-labs/evaltable/pkg/render"
	"github.com/leapstack-labs/evaltable/pkg/table"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Engine    *engine.Engine
	Telemetry *telemetry.Telemetry
}

// NewCommandContext creates a CommandContext with engine and telemetry.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	tel, err := telemetry.New(telemetry.Config{
		TraceFile:      cfg.Telemetry.TraceFile,
		MetricsFile:    cfg.Telemetry.MetricsFile,
		ServiceVersion: cmd.Root().Version,
	})
	if err != nil {
		return nil, nil, err
	}

	eng, err := createEngine(cfg, logger, tel, cmd.InOrStdin())
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, nil, err
	}

	cleanup := func() {
		_ = eng.Close()
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to flush telemetry", slog.String("error", err.Error()))
		}
	}

	return &CommandContext{
		Cfg:       cfg,
		Logger:    logger,
		Engine:    eng,
		Telemetry: tel,
	}, cleanup, nil
}

// getConfig returns the current configuration, or the defaults when none
// was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

func createEngine(cfg *config.Config, logger *slog.Logger, tel *telemetry.Telemetry, stdin io.Reader) (*engine.Engine, error) {
	engineCfg, err := engineConfig(cfg, stdin)
	if err != nil {
		return nil, err
	}

	if engineCfg.StatePath != "" {
		// Ensure state directory exists
		stateDir := filepath.Dir(engineCfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	engineCfg.Telemetry = tel
	engineCfg.Logger = logger
	return engine.New(engineCfg)
}

// engineConfig translates CLI configuration into engine configuration.
func engineConfig(cfg *config.Config, stdin io.Reader) (engine.Config, error) {
	delim, err := cfg.DelimiterRune()
	if err != nil {
		return engine.Config{}, err
	}
	nan, err := eval.ParseNaNPolicy(cfg.NaNPolicy)
	if err != nil {
		return engine.Config{}, err
	}

	path := cfg.Table
	if cfg.Source.Type != "" && cfg.Source.Type != "csv" && path == "-" {
		path = ""
	}

	engineCfg := engine.Config{
		Source: source.Config{
			Type:  cfg.Source.Type,
			Path:  path,
			DSN:   cfg.Source.DSN,
			Query: cfg.Source.Query,
			Stdin: stdin,
			Table: table.Options{
				// Labels are read from the first row.
				HasHeader: cfg.HasHeader || cfg.Labels,
				Delimiter: delim,
				Target:    cfg.Target - 1,
			},
		},
		Labels:       cfg.Labels,
		OperatorsDir: cfg.OperatorsDir,
		Workers:      cfg.Workers,
		Seed:         cfg.Seed,
		NaN:          nan,
	}
	if cfg.History {
		engineCfg.StatePath = cfg.StatePath
	}
	return engineCfg, nil
}

// loadPrograms collects --combo programs followed by the lines of the
// combo file. Blank lines and lines starting with ';' are skipped.
func loadPrograms(cfg *config.Config) ([]string, error) {
	var programs []string
	for _, c := range cfg.Combo {
		if c = strings.TrimSpace(c); c != "" {
			programs = append(programs, c)
		}
	}

	if cfg.ComboFile != "" {
		f, err := os.Open(cfg.ComboFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open combo file: %w", err)
		}
		defer func() { _ = f.Close() }()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, ";") {
				continue
			}
			programs = append(programs, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read combo file: %w", err)
		}
	}

	if len(programs) == 0 {
		return nil, fmt.Errorf("no programs to evaluate\nHint: pass --combo/-c or --combo-file/-C")
	}
	return programs, nil
}

// renderOptions builds output options for w.
func renderOptions(cfg *config.Config, w io.Writer) render.Options {
	format, delim, _ := render.ParseFormat(cfg.Format)
	if delim == "" {
		if r, err := cfg.DelimiterRune(); err == nil {
			delim = string(r)
		}
	}
	return render.Options{
		Format:       format,
		Delimiter:    delim,
		Header:       cfg.Header,
		DisplayInput: cfg.DisplayInput,
		FailureToken: cfg.FailureToken,
		Color:        format == render.FormatTable && render.DetectColor(w),
	}
}

// openOutput returns the configured output destination. The returned close
// function must be called when done writing.
func openOutput(cfg *config.Config, stdout io.Writer) (io.Writer, func() error, error) {
	if cfg.Output == "" || cfg.Output == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
