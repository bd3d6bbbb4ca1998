// Package storagetest opens throwaway ledger databases for tests.
package storagetest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"despesas/internal/storage"
)

var nameCleaner = strings.NewReplacer("/", "_", " ", "_", "#", "_")

// Open returns an in-memory SQLite ledger with the production schema. The
// database is private to the calling test and closed when it finishes.
func Open(t testing.TB) *storage.DB {
	t.Helper()

	// Shared cache keeps the database alive across the pool and the
	// migration connection.
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		nameCleaner.Replace(t.Name()),
	)

	db, err := storage.Open(context.Background(), storage.Config{Driver: storage.DriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("storagetest: open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Exec runs a raw statement against db, failing the test on error.
func Exec(t testing.TB, db *storage.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.SQL().ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("storagetest: exec %q: %v", query, err)
	}
}
