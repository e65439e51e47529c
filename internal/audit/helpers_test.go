package audit

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/session-audit/internal/infrastructure/database"
	"github.com/nerrad567/session-audit/migrations"
)

// testDB creates a migrated temporary database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "audit-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(t.Context(), migrations.FS); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	return db.DB
}

// insertUser adds a bare user row so session_logs foreign keys resolve.
func insertUser(t *testing.T, db *sql.DB, id, username, role string) {
	t.Helper()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(
		`INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, 'x', ?, ?, ?)`,
		id, username, role, now, now,
	)
	if err != nil {
		t.Fatalf("inserting user %s: %v", id, err)
	}
}
