package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/session-audit/internal/apperr"
)

func TestSQLiteRepository_CreateAndFindOpen(t *testing.T) {
	db := testDB(t)
	insertUser(t, db, "usr-alice", "alice", "Standard")
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	entry := &SessionLogEntry{UserID: "usr-alice", ClientAddress: "10.0.0.1"}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(entry.ID) != len("ses-")+8 {
		t.Errorf("ID = %q, want ses-xxxxxxxx", entry.ID)
	}
	if entry.LoginTime.IsZero() {
		t.Error("LoginTime should be set")
	}

	got, err := repo.FindMostRecentOpenByUser(ctx, "usr-alice")
	if err != nil {
		t.Fatalf("FindMostRecentOpenByUser() error = %v", err)
	}
	if got.ID != entry.ID {
		t.Errorf("ID = %q, want %q", got.ID, entry.ID)
	}
	if !got.Open() {
		t.Error("new entry should be open")
	}
	if got.ClientAddress != "10.0.0.1" {
		t.Errorf("ClientAddress = %q, want 10.0.0.1", got.ClientAddress)
	}
	if !got.LoginTime.Equal(entry.LoginTime) {
		t.Errorf("LoginTime = %v, want %v", got.LoginTime, entry.LoginTime)
	}
}

func TestSQLiteRepository_CreateRequiresUser(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &SessionLogEntry{}); !errors.Is(err, ErrMissingUserID) {
		t.Errorf("Create() without user error = %v, want ErrMissingUserID", err)
	}
	if err := repo.Create(ctx, &SessionLogEntry{UserID: "usr-ghost"}); err == nil {
		t.Error("Create() for unknown user should violate the foreign key")
	}
}

func TestSQLiteRepository_FindMostRecentOpen_PicksNewest(t *testing.T) {
	db := testDB(t)
	insertUser(t, db, "usr-bob", "bob", "Standard")
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	// Fractional seconds check that ordering is chronological, not lexical.
	times := []time.Time{base, base.Add(1500 * time.Millisecond), base.Add(time.Second)}
	ids := make([]string, len(times))
	for i, lt := range times {
		e := &SessionLogEntry{UserID: "usr-bob", LoginTime: lt}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids[i] = e.ID
	}

	got, err := repo.FindMostRecentOpenByUser(ctx, "usr-bob")
	if err != nil {
		t.Fatalf("FindMostRecentOpenByUser() error = %v", err)
	}
	if got.ID != ids[1] {
		t.Errorf("picked %q, want newest %q", got.ID, ids[1])
	}

	if err := repo.Close(ctx, ids[1], base.Add(time.Minute)); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	got, err = repo.FindMostRecentOpenByUser(ctx, "usr-bob")
	if err != nil {
		t.Fatalf("FindMostRecentOpenByUser() error = %v", err)
	}
	if got.ID != ids[2] {
		t.Errorf("after closing newest picked %q, want %q", got.ID, ids[2])
	}
}

func TestSQLiteRepository_FindMostRecentOpen_None(t *testing.T) {
	db := testDB(t)
	insertUser(t, db, "usr-carol", "carol", "Auditor")
	repo := NewSQLiteRepository(db)

	_, err := repo.FindMostRecentOpenByUser(context.Background(), "usr-carol")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("error = %v, want ErrEntryNotFound", err)
	}
	if apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("KindOf() = %q, want not_found", apperr.KindOf(err))
	}
}

func TestSQLiteRepository_CloseOnce(t *testing.T) {
	db := testDB(t)
	insertUser(t, db, "usr-alice", "alice", "Standard")
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	e := &SessionLogEntry{UserID: "usr-alice"}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	logout := e.LoginTime.Add(90 * time.Second)
	if err := repo.Close(ctx, e.ID, logout); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := repo.Close(ctx, e.ID, logout.Add(time.Second)); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("second Close() error = %v, want ErrAlreadyClosed", err)
	}
	if err := repo.Close(ctx, "ses-missing", logout); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("Close() of unknown id error = %v, want ErrAlreadyClosed", err)
	}

	page, err := repo.ListByUser(ctx, "usr-alice", 10, 0)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	got := page.Entries[0]
	if got.LogoutTime == nil || !got.LogoutTime.Equal(logout) {
		t.Errorf("LogoutTime = %v, want %v (first close wins)", got.LogoutTime, logout)
	}
	if got.Duration() != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", got.Duration())
	}
}

func TestSQLiteRepository_ListByUser(t *testing.T) {
	db := testDB(t)
	insertUser(t, db, "usr-a", "a", "Auditor")
	insertUser(t, db, "usr-b", "b", "Standard")
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := range 5 {
		if err := repo.Create(ctx, &SessionLogEntry{UserID: "usr-a", LoginTime: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if err := repo.Create(ctx, &SessionLogEntry{UserID: "usr-b", LoginTime: base}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	page, err := repo.ListByUser(ctx, "usr-a", 2, 1)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if page.Total != 5 {
		t.Errorf("Total = %d, want 5", page.Total)
	}
	if len(page.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(page.Entries))
	}
	if !page.Entries[0].LoginTime.Equal(base.Add(3*time.Hour)) || !page.Entries[1].LoginTime.Equal(base.Add(2*time.Hour)) {
		t.Errorf("entries not newest-first after skip: %v, %v", page.Entries[0].LoginTime, page.Entries[1].LoginTime)
	}
	if page.Limit != 2 || page.Skip != 1 {
		t.Errorf("Limit/Skip = %d/%d, want 2/1", page.Limit, page.Skip)
	}

	empty, err := repo.ListByUser(ctx, "usr-none", 10, 0)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if empty.Total != 0 || empty.Entries == nil || len(empty.Entries) != 0 {
		t.Errorf("unknown user page = %+v, want empty", empty)
	}
}

func TestSQLiteRepository_CascadeOnUserDelete(t *testing.T) {
	db := testDB(t)
	insertUser(t, db, "usr-tmp", "tmp", "Standard")
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, &SessionLogEntry{UserID: "usr-tmp"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := db.Exec("DELETE FROM users WHERE id = 'usr-tmp'"); err != nil {
		t.Fatalf("deleting user: %v", err)
	}

	page, err := repo.ListByUser(ctx, "usr-tmp", 10, 0)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if page.Total != 0 {
		t.Errorf("Total = %d, want 0 after cascade", page.Total)
	}
}
