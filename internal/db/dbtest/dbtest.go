// Package dbtest opens throwaway SQLite ledger stores for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"ledger_service/internal/db"
)

// New returns a migrated SQLite store living in the test's temp dir.
// The store is closed when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	store, err := db.Open(db.Options{
		Driver:     db.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
		LogLevel:   "silent",
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(store) })
	if err := db.Migrate(store, db.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}
