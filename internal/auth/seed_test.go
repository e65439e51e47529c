package auth

import (
	"context"
	"log/slog"
	"testing"
)

func TestSeedAuditor_CreatesOnEmptyDB(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	password, err := SeedAuditor(ctx, repo, "auditor", slog.Default())
	if err != nil {
		t.Fatalf("SeedAuditor() error = %v", err)
	}
	if password == "" {
		t.Fatal("SeedAuditor() should return generated password")
	}

	auditor, err := repo.GetByUsername(ctx, "auditor")
	if err != nil {
		t.Fatalf("GetByUsername(auditor) error = %v", err)
	}
	if auditor.Role != RoleAuditor {
		t.Errorf("Role = %q, want %q", auditor.Role, RoleAuditor)
	}

	ok, err := VerifyPassword(password, auditor.PasswordHash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !ok {
		t.Error("generated password should verify against stored hash")
	}
}

func TestSeedAuditor_SkipsWhenUsersExist(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	seedTestUser(t, db, "existing", RoleStandard)

	password, err := SeedAuditor(ctx, repo, "auditor", slog.Default())
	if err != nil {
		t.Fatalf("SeedAuditor() error = %v", err)
	}
	if password != "" {
		t.Error("SeedAuditor() should return empty password when users exist")
	}

	if count, _ := repo.Count(ctx); count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestSeedAuditor_DisabledWithoutUsername(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	password, err := SeedAuditor(ctx, repo, "", slog.Default())
	if err != nil {
		t.Fatalf("SeedAuditor() error = %v", err)
	}
	if password != "" {
		t.Error("SeedAuditor() with empty username should not seed")
	}
	if count, _ := repo.Count(ctx); count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}
}
