package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	_ "github.com/lib/pq"
)

const (
	defaultMaxOpenConns    = 16
	defaultConnMaxIdleTime = 5 * time.Minute
)

// OpenPostgres opens a pooled Postgres-backed bun.DB for production use.
// Tests use SQLite instead; see the integration suite.
func OpenPostgres(dsn string) (*bun.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlstore: postgres dsn is required")
	}
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open postgres: %w", err)
	}
	sqldb.SetMaxOpenConns(defaultMaxOpenConns)
	sqldb.SetConnMaxIdleTime(defaultConnMaxIdleTime)
	return bun.NewDB(sqldb, pgdialect.New()), nil
}
