// Package config provides configuration management for the evaltable CLI.
//
// Values are layered with koanf: built-in defaults, then evaltable.yaml,
// then EVALTABLE_* environment variables, then flags set on the command line.
package config

// Default configuration values.
const (
	DefaultTable        = "-"
	DefaultDelimiter    = ","
	DefaultTarget       = 1
	DefaultFormat       = "delimited"
	DefaultSeed         = 1
	DefaultNaNPolicy    = "propagate"
	DefaultFailureToken = "ERR"
	DefaultStateFile    = ".evaltable/state.db"
	DefaultSourceType   = "csv"
	DefaultConfigName   = "evaltable.yaml"
	EnvPrefix           = "EVALTABLE_"
)

// SourceConfig selects where the input table comes from.
type SourceConfig struct {
	Type  string `koanf:"type"`
	DSN   string `koanf:"dsn"`
	Query string `koanf:"query"`
}

// TelemetryConfig selects trace and metrics output files.
type TelemetryConfig struct {
	TraceFile   string `koanf:"trace_file"`
	MetricsFile string `koanf:"metrics_file"`
}

// Config holds all CLI configuration options.
type Config struct {
	// Input table
	Table     string `koanf:"table"`
	HasHeader bool   `koanf:"has_header"`
	Delimiter string `koanf:"delimiter"`
	// Target is the 1-based column whose type selects the evaluator.
	Target int `koanf:"target"`

	// Programs
	Combo     []string `koanf:"combo"`
	ComboFile string   `koanf:"combo_file"`
	Labels    bool     `koanf:"labels"`

	// Output
	Output       string `koanf:"output"`
	Format       string `koanf:"format"`
	DisplayInput bool   `koanf:"display_input"`
	Header       bool   `koanf:"header"`
	FailureToken string `koanf:"failure_token"`

	// Evaluation
	Seed      uint64 `koanf:"seed"`
	Workers   int    `koanf:"workers"`
	NaNPolicy string `koanf:"nan_policy"`

	OperatorsDir string `koanf:"operators_dir"`
	StatePath    string `koanf:"state_path"`
	History      bool   `koanf:"history"`
	Verbose      bool   `koanf:"verbose"`

	Source    SourceConfig    `koanf:"source"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// Default returns a Config holding the built-in defaults.
func Default() *Config {
	return &Config{
		Table:        DefaultTable,
		Delimiter:    DefaultDelimiter,
		Target:       DefaultTarget,
		Format:       DefaultFormat,
		Seed:         DefaultSeed,
		NaNPolicy:    DefaultNaNPolicy,
		FailureToken: DefaultFailureToken,
		StatePath:    DefaultStateFile,
		Source:       SourceConfig{Type: DefaultSourceType},
	}
}

// defaultsMap mirrors Default for the koanf confmap provider.
func defaultsMap() map[string]interface{} {
	return map[string]interface{}{
		"table":         DefaultTable,
		"has_header":    false,
		"delimiter":     DefaultDelimiter,
		"target":        DefaultTarget,
		"labels":        false,
		"format":        DefaultFormat,
		"display_input": false,
		"header":        false,
		"failure_token": DefaultFailureToken,
		"seed":          DefaultSeed,
		"workers":       0,
		"nan_policy":    DefaultNaNPolicy,
		"state_path":    DefaultStateFile,
		"history":       false,
		"verbose":       false,
		"source.type":   DefaultSourceType,
	}
}
