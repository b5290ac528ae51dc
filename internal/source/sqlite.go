package source

import (
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // sqlite driver
)

func init() {
	Register("sqlite", func(logger *slog.Logger) Source {
		return &SQL{driver: "sqlite", dsn: sqliteDSN, query: requireQuery, logger: logger}
	})
}

// sqliteDSN opens the database file read-only.
func sqliteDSN(cfg Config) (string, error) {
	path := cfg.Path
	if path == "" {
		path = cfg.DSN
	}
	if path == "" {
		return "", fmt.Errorf("source %q requires a database path", "sqlite")
	}
	return "file:" + path + "?mode=ro", nil
}
