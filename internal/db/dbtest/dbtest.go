// Package dbtest opens throwaway sqlite databases for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/NesmitC/project-webmath/internal/db"
)

// Open returns an in-memory sqlite database with the full schema. Every test
// gets its own database; it is closed on cleanup.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// a single connection keeps the shared in-memory database alive and
	// serialises writers
	h.SetMaxOpenConns(1)
	t.Cleanup(func() { h.Close() })
	return h
}
