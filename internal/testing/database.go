package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/nerida-ai/courier/db"
)

// CreateTestDB creates a migrated SQLite test database.
// Backed by a temp file rather than :memory: so that concurrent
// connections from the pool see the same database — the race-safety
// tests depend on that. Cleanup is registered via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "courier_test.db")
	database, err := db.OpenWithMigrations(path, nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}
