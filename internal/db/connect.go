// Package db opens the SQL database behind the stores and keeps its schema.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

//go:embed schema/*.sql
var schemas embed.FS

type backend struct {
	sqlName    string // name registered with database/sql
	defaultDSN string
	schema     string // file under schema/
}

var backends = map[Driver]backend{
	DriverSQLite: {
		sqlName:    "sqlite",
		defaultDSN: "file:webmath.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		schema:     "schema/sqlite.sql",
	},
	DriverPostgres: {
		sqlName:    "pgx",
		defaultDSN: "postgres://localhost:5432/webmath?sslmode=disable",
		schema:     "schema/postgres.sql",
	},
}

func lookup(driver Driver) (backend, error) {
	b, ok := backends[driver]
	if !ok {
		return backend{}, fmt.Errorf("unsupported driver %q", driver)
	}
	return b, nil
}

// Open connects, pings and applies the schema. An empty dsn means the
// driver's local default.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	b, err := lookup(driver)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		dsn = b.defaultDSN
	}
	h, err := sql.Open(b.sqlName, dsn)
	if err != nil {
		return nil, err
	}
	if err := h.PingContext(ctx); err != nil {
		h.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := EnsureSchema(ctx, h, driver); err != nil {
		h.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return h, nil
}

// EnsureSchema creates missing tables and indexes. Running it again is a
// no-op.
func EnsureSchema(ctx context.Context, h *sql.DB, driver Driver) error {
	b, err := lookup(driver)
	if err != nil {
		return err
	}
	ddl, err := schemas.ReadFile(b.schema)
	if err != nil {
		return err
	}
	_, err = h.ExecContext(ctx, string(ddl))
	return err
}
