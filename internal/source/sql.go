package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/leapstack-labs/evaltable/pkg/table"
)

// SQL loads a table from a database/sql driver.
type SQL struct {
	driver string
	// dsn derives the driver connection string from the configuration.
	dsn    func(Config) (string, error)
	query  func(Config) (string, error)
	logger *slog.Logger
}

// Load opens the database, runs the configured query and infers a table
// from its result set.
func (s *SQL) Load(ctx context.Context, cfg Config) (*table.Table, error) {
	dsn, err := s.dsn(cfg)
	if err != nil {
		return nil, err
	}
	query, err := s.query(cfg)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("opening database", slog.String("driver", s.driver))
	db, err := sql.Open(s.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", s.driver, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", s.driver, err)
	}

	return LoadQuery(ctx, db, query, cfg.Table)
}

// LoadQuery runs query on db and builds a table from the result. Column
// names become labels; NULL becomes a missing value.
func LoadQuery(ctx context.Context, db *sql.DB, query string, opts table.Options) (*table.Table, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records [][]string
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rec := make([]string, len(cols))
		for i, v := range values {
			rec[i] = formatSQLValue(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return table.FromRecords(cols, records, opts)
}

// formatSQLValue renders a scanned value as table text.
func formatSQLValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

func requireQuery(cfg Config) (string, error) {
	if cfg.Query == "" {
		return "", fmt.Errorf("source %q requires a query", cfg.Type)
	}
	return cfg.Query, nil
}
