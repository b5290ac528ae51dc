package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// flagKeys maps flag names whose config key is not the snake_case flag name.
var flagKeys = map[string]string{
	"state":        "state_path",
	"source-type":  "source.type",
	"dsn":          "source.dsn",
	"query":        "source.query",
	"trace-file":   "telemetry.trace_file",
	"metrics-file": "telemetry.metrics_file",
}

// skippedFlags never become config keys.
var skippedFlags = map[string]bool{
	"config": true,
	"help":   true,
}

// FlagKey returns the config key a flag sets, or "" for flags that are not
// configuration.
func FlagKey(name string) string {
	if skippedFlags[name] {
		return ""
	}
	key, ok := flagKeys[name]
	if !ok {
		key = strings.ReplaceAll(name, "-", "_")
	}
	if !configKeys[key] {
		return ""
	}
	return key
}

var configKeys = keySet(reflect.TypeOf(Config{}), "")

// keySet collects the dotted koanf keys of a config struct.
func keySet(t reflect.Type, prefix string) map[string]bool {
	keys := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if tag == "" {
			continue
		}
		if f.Type.Kind() == reflect.Struct {
			for k := range keySet(f.Type, prefix+tag+".") {
				keys[k] = true
			}
			continue
		}
		keys[prefix+tag] = true
	}
	return keys
}

// configExistsIn returns the config file in dir, if any.
func configExistsIn(dir string) string {
	for _, name := range []string{DefaultConfigName, "evaltable.yml"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigFile searches upward from startDir for an evaltable config file.
func findConfigFile(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == "-" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
//
// Paths in a config file are relative to the file's directory; paths from
// flags and env vars are relative to the working directory.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = cfgFile
	if configFileUsed == "" {
		if cwd, err := os.Getwd(); err == nil {
			configFileUsed = findConfigFile(cwd)
		}
	}
	var fileDir string
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			fileDir = filepath.Dir(abs)
		}
	}

	// Snapshot file-level paths before env and flags override them.
	fileTable := k.String("table")
	fileComboFile := k.String("combo_file")
	fileOperatorsDir := k.String("operators_dir")
	fileStatePath := k.String("state_path")

	// 3. Load environment variables (EVALTABLE_ prefix)
	// Transform: EVALTABLE_NAN_POLICY -> nan_policy, EVALTABLE_SOURCE__DSN -> source.dsn
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			key := FlagKey(f.Name)
			if !f.Changed || key == "" {
				return "", nil
			}
			var val interface{}
			if f.Value.Type() == "stringArray" {
				// Programs may contain commas, so repeated flags are kept whole.
				val, _ = flags.GetStringArray(f.Name)
			} else {
				val = posflag.FlagVal(flags, f)
			}
			return key, val
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Paths that still hold the config file's value are file-relative.
	if fileDir != "" {
		if cfg.Table == fileTable {
			cfg.Table = resolvePathRelativeTo(cfg.Table, fileDir)
		}
		if cfg.ComboFile == fileComboFile {
			cfg.ComboFile = resolvePathRelativeTo(cfg.ComboFile, fileDir)
		}
		if cfg.OperatorsDir == fileOperatorsDir {
			cfg.OperatorsDir = resolvePathRelativeTo(cfg.OperatorsDir, fileDir)
		}
		if cfg.StatePath == fileStatePath {
			cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, fileDir)
		}
	}

	cfg.Source.DSN = expandEnvVars(cfg.Source.DSN)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration loaded by LoadConfig, or nil.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}
