package source

import (
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

func init() {
	Register("postgres", func(logger *slog.Logger) Source {
		return &SQL{driver: "pgx", dsn: postgresDSN, query: requireQuery, logger: logger}
	})
}

func postgresDSN(cfg Config) (string, error) {
	if cfg.DSN == "" {
		return "", fmt.Errorf("source %q requires a dsn", "postgres")
	}
	return cfg.DSN, nil
}
