package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/session-audit/internal/apperr"
)

func newTestAccounts(t *testing.T) (*Accounts, *SQLiteUserRepository) {
	t.Helper()
	repo := NewUserRepository(testDB(t))
	return NewAccounts(repo), repo
}

func strPtr(s string) *string { return &s }

func TestAccounts_Register(t *testing.T) {
	accounts, repo := newTestAccounts(t)
	ctx := context.Background()

	u, err := accounts.Register(ctx, RegisterInput{
		Username:  "alice",
		Password:  "pw-alice",
		FirstName: "Alice",
	})
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	assert.Equal(t, RoleStandard, u.Role)

	stored, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	ok, err := VerifyPassword("pw-alice", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccounts_Register_Taken(t *testing.T) {
	accounts, _ := newTestAccounts(t)
	ctx := context.Background()

	_, err := accounts.Register(ctx, RegisterInput{Username: "alice", Password: "a"})
	require.NoError(t, err)

	_, err = accounts.Register(ctx, RegisterInput{Username: "alice", Password: "b"})
	require.Error(t, err)
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
	assert.True(t, errors.Is(err, ErrUsernameExists))
	assert.Equal(t, `Username "alice" is already taken`, apperr.MessageOf(err))
}

func TestAccounts_Register_Validation(t *testing.T) {
	accounts, _ := newTestAccounts(t)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"bad username", RegisterInput{Username: "no spaces", Password: "x"}},
		{"empty username", RegisterInput{Password: "x"}},
		{"no password", RegisterInput{Username: "ok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounts.Register(context.Background(), tt.in)
			assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
		})
	}
}

func TestAccounts_List(t *testing.T) {
	accounts, _ := newTestAccounts(t)
	ctx := context.Background()

	for _, name := range []string{"a1", "a2", "a3"} {
		_, err := accounts.Register(ctx, RegisterInput{Username: name, Password: "x"})
		require.NoError(t, err)
	}

	page, err := accounts.List(ctx, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Result, 3)
	for _, u := range page.Result {
		assert.Empty(t, u.PasswordHash)
	}

	page, err = accounts.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.Len(t, page.Result, 1)
}

func TestAccounts_Get(t *testing.T) {
	accounts, _ := newTestAccounts(t)
	ctx := context.Background()

	u, err := accounts.Register(ctx, RegisterInput{Username: "getme", Password: "x"})
	require.NoError(t, err)

	got, err := accounts.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "getme", got.Username)
	assert.Empty(t, got.PasswordHash)

	_, err = accounts.Get(ctx, "usr-nobody")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestAccounts_Update(t *testing.T) {
	accounts, repo := newTestAccounts(t)
	ctx := context.Background()

	u, err := accounts.Register(ctx, RegisterInput{Username: "old", Password: "old-pw"})
	require.NoError(t, err)
	_, err = accounts.Register(ctx, RegisterInput{Username: "busy", Password: "x"})
	require.NoError(t, err)

	t.Run("same username skips uniqueness", func(t *testing.T) {
		err := accounts.Update(ctx, u.ID, u.ID, UpdateInput{Username: strPtr("old"), FirstName: strPtr("Olga")})
		require.NoError(t, err)
		got, _ := repo.GetByID(ctx, u.ID)
		assert.Equal(t, "Olga", got.FirstName)
	})

	t.Run("taken username", func(t *testing.T) {
		err := accounts.Update(ctx, u.ID, u.ID, UpdateInput{Username: strPtr("busy")})
		assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
		assert.Equal(t, `Username "busy" is already taken`, apperr.MessageOf(err))
	})

	t.Run("no password keeps hash", func(t *testing.T) {
		before, _ := repo.GetByID(ctx, u.ID)
		require.NoError(t, accounts.Update(ctx, u.ID, u.ID, UpdateInput{LastName: strPtr("L")}))
		after, _ := repo.GetByID(ctx, u.ID)
		assert.Equal(t, before.PasswordHash, after.PasswordHash)
	})

	t.Run("password rehashed", func(t *testing.T) {
		require.NoError(t, accounts.Update(ctx, u.ID, u.ID, UpdateInput{Password: strPtr("new-pw")}))
		after, _ := repo.GetByID(ctx, u.ID)
		ok, err := VerifyPassword("new-pw", after.PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})


	t.Run("missing user", func(t *testing.T) {
		err := accounts.Update(ctx, u.ID, "usr-nobody", UpdateInput{FirstName: strPtr("x")})
		assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	})
}

func TestAccounts_Delete(t *testing.T) {
	accounts, _ := newTestAccounts(t)
	ctx := context.Background()

	u, err := accounts.Register(ctx, RegisterInput{Username: "bye", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, accounts.Delete(ctx, u.ID))
	assert.Equal(t, apperr.NotFound, apperr.KindOf(accounts.Delete(ctx, u.ID)))
}

func TestAccounts_Update_Role(t *testing.T) {
	accounts, repo := newTestAccounts(t)
	ctx := context.Background()

	bob, err := accounts.Register(ctx, RegisterInput{Username: "bob", Password: "x"})
	require.NoError(t, err)
	carol := seedTestUser(t, repo.db, "carol", RoleAuditor)
	auditor := RoleAuditor
	standard := RoleStandard

	t.Run("standard cannot promote self", func(t *testing.T) {
		err := accounts.Update(ctx, bob.ID, bob.ID, UpdateInput{Role: &auditor})
		assert.ErrorIs(t, err, ErrRoleChange)
		assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
		got, _ := repo.GetByID(ctx, bob.ID)
		assert.Equal(t, RoleStandard, got.Role)
	})

	t.Run("unchanged role needs no auditor", func(t *testing.T) {
		require.NoError(t, accounts.Update(ctx, bob.ID, bob.ID, UpdateInput{Role: &standard, FirstName: strPtr("Bob")}))
	})

	t.Run("rejected role change writes nothing", func(t *testing.T) {
		err := accounts.Update(ctx, bob.ID, bob.ID, UpdateInput{Role: &auditor, LastName: strPtr("Sneaky")})
		require.Error(t, err)
		got, _ := repo.GetByID(ctx, bob.ID)
		assert.Empty(t, got.LastName)
	})

	t.Run("invalid role", func(t *testing.T) {
		bogus := Role("Root")
		err := accounts.Update(ctx, carol.ID, bob.ID, UpdateInput{Role: &bogus})
		assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
	})

	t.Run("auditor promotes", func(t *testing.T) {
		require.NoError(t, accounts.Update(ctx, carol.ID, bob.ID, UpdateInput{Role: &auditor}))
		got, _ := repo.GetByID(ctx, bob.ID)
		assert.Equal(t, RoleAuditor, got.Role)
	})
}

// failingPasswordRepo fails any separate password write, so a passing
// update proves the hash travelled with the profile.
type failingPasswordRepo struct {
	*SQLiteUserRepository
}

func (failingPasswordRepo) UpdatePassword(context.Context, string, string) error {
	return errors.New("separate password write")
}

// failingUpdateRepo rejects every profile write.
type failingUpdateRepo struct {
	*SQLiteUserRepository
}

func (failingUpdateRepo) Update(context.Context, *User) error {
	return errors.New("disk full")
}

func TestAccounts_Update_SingleWrite(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	u, err := NewAccounts(repo).Register(ctx, RegisterInput{Username: "dave", Password: "old-pw"})
	require.NoError(t, err)

	t.Run("profile and password together", func(t *testing.T) {
		accounts := NewAccounts(failingPasswordRepo{repo})
		require.NoError(t, accounts.Update(ctx, u.ID, u.ID, UpdateInput{
			FirstName: strPtr("Dave"),
			Password:  strPtr("new-pw"),
		}))

		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dave", got.FirstName)
		ok, err := VerifyPassword("new-pw", got.PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("failed write keeps old password", func(t *testing.T) {
		accounts := NewAccounts(failingUpdateRepo{repo})
		err := accounts.Update(ctx, u.ID, u.ID, UpdateInput{Password: strPtr("lost-pw")})
		require.Error(t, err)

		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		ok, err := VerifyPassword("new-pw", got.PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
