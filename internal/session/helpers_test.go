package session

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nerrad567/session-audit/internal/audit"
	"github.com/nerrad567/session-audit/internal/auth"
	"github.com/nerrad567/session-audit/internal/infrastructure/database"
	"github.com/nerrad567/session-audit/migrations"
)

const testSecret = "session-test-secret-session-test-secret"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *capturePublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

type testEnv struct {
	users      *auth.SQLiteUserRepository
	accounts   *auth.Accounts
	sessions   *audit.SQLiteRepository
	tokens     *auth.TokenIssuer
	events     *capturePublisher
	correlator *Correlator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "session-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background(), migrations.FS))

	env := &testEnv{
		users:    auth.NewUserRepository(db.DB),
		sessions: audit.NewSQLiteRepository(db.DB),
		tokens:   auth.NewTokenIssuer(testSecret, time.Hour),
		events:   &capturePublisher{},
	}
	env.accounts = auth.NewAccounts(env.users)
	env.correlator = NewCorrelator(env.users, env.tokens, env.sessions, discardLogger(), WithPublisher(env.events))
	return env
}

func (env *testEnv) register(t *testing.T, username, password string, role auth.Role) *auth.User {
	t.Helper()
	ctx := context.Background()
	u, err := env.accounts.Register(ctx, auth.RegisterInput{
		Username: username,
		Password: password,
	})
	require.NoError(t, err)
	if role != u.Role {
		stored, err := env.users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		stored.Role = role
		require.NoError(t, env.users.Update(ctx, stored))
		u.Role = role
	}
	return u
}
