package auth

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/nerrad567/session-audit/internal/infrastructure/database"
	"github.com/nerrad567/session-audit/migrations"
)

// testDB creates a temporary SQLite database with the production schema
// applied. It is closed when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "auth-test.db"),
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

// seedTestUser inserts a test user with password "test-password" and returns it.
func seedTestUser(t *testing.T, db *sql.DB, username string, role Role) *User {
	t.Helper()

	hash, err := HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	user := &User{
		Username:     username,
		FirstName:    username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := NewUserRepository(db).Create(t.Context(), user); err != nil {
		t.Fatalf("creating test user %s: %v", username, err)
	}
	return user
}
