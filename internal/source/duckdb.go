package source

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register("duckdb", func(logger *slog.Logger) Source {
		return &SQL{driver: "duckdb", dsn: duckdbDSN, query: duckdbQuery, logger: logger}
	})
}

// dataFileExts are files DuckDB can query in place.
var dataFileExts = map[string]bool{
	".csv":     true,
	".tsv":     true,
	".parquet": true,
	".json":    true,
	".ndjson":  true,
}

func isDataFile(path string) bool {
	return dataFileExts[strings.ToLower(filepath.Ext(path))]
}

// duckdbDSN uses cfg.DSN as the database, or the path unless it is a data
// file, falling back to an in-memory database.
func duckdbDSN(cfg Config) (string, error) {
	switch {
	case cfg.DSN != "":
		return cfg.DSN, nil
	case cfg.Path != "" && !isDataFile(cfg.Path):
		return cfg.Path, nil
	default:
		return "", nil
	}
}

// duckdbQuery selects the whole data file when no query is given.
func duckdbQuery(cfg Config) (string, error) {
	if cfg.Query != "" {
		return cfg.Query, nil
	}
	if cfg.Path != "" && isDataFile(cfg.Path) {
		abs, err := filepath.Abs(cfg.Path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		return fmt.Sprintf("SELECT * FROM '%s'", strings.ReplaceAll(abs, "'", "''")), nil
	}
	return "", fmt.Errorf("source %q requires a query or a data file path", "duckdb")
}
