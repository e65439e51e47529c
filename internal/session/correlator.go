package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nerrad567/session-audit/internal/apperr"
	"github.com/nerrad567/session-audit/internal/audit"
	"github.com/nerrad567/session-audit/internal/auth"
)

// maxCloseAttempts bounds how often logout re-reads after losing a race
// for the same open entry.
const maxCloseAttempts = 3

// ErrNoOpenSession is returned when a user has nothing left to log out of.
var ErrNoOpenSession = apperr.New(apperr.NotFound, "no open session")

// Credentials is the part of the user store the correlator needs.
type Credentials interface {
	GetByUsername(ctx context.Context, username string) (*auth.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Issuer signs bearer tokens for a user ID.
type Issuer interface {
	Issue(userID string) (string, error)
}

// Publisher accepts session events for asynchronous delivery.
type Publisher interface {
	Publish(e Event)
}

// AuthResult is a successful login: the caller's profile plus a token.
// It marshals flat, with the token alongside the profile fields.
type AuthResult struct {
	*auth.User
	Token string `json:"token"`
}

// Correlator ties logins and logouts to session log entries.
//
// It holds no locks: single-entry closure is guaranteed by the store's
// conditional close.
type Correlator struct {
	users    Credentials
	tokens   Issuer
	sessions audit.Repository
	events   Publisher
	logger   *slog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithPublisher sends session events to p.
func WithPublisher(p Publisher) Option {
	return func(c *Correlator) { c.events = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Correlator) { c.now = now }
}

// NewCorrelator creates a session correlator.
func NewCorrelator(users Credentials, tokens Issuer, sessions audit.Repository, logger *slog.Logger, opts ...Option) *Correlator {
	c := &Correlator{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate checks a username and password.
//
// An unknown username and a wrong password both return (nil, nil) so the
// caller cannot tell them apart. Store failures and unusable stored hashes
// are returned as errors.
func (c *Correlator) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	u, err := c.users.GetByUsername(ctx, username)
	if errors.Is(err, auth.ErrUserNotFound) {
		c.burnVerify(password)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password for %s: %w", u.ID, err)
	}
	if !ok {
		return nil, nil
	}

	if auth.NeedsRehash(u.PasswordHash) {
		c.upgradeHash(ctx, u.ID, password)
	}

	token, err := c.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	return &AuthResult{User: u.Profile(), Token: token}, nil
}

// OpenSession records a login for userID.
func (c *Correlator) OpenSession(ctx context.Context, userID, clientAddress string) (*audit.SessionLogEntry, error) {
	entry := &audit.SessionLogEntry{
		UserID:        userID,
		LoginTime:     c.now().UTC(),
		ClientAddress: clientAddress,
	}
	if err := c.sessions.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	c.logger.Info("session opened",
		"user_id", userID,
		"session_id", entry.ID,
		"client_address", clientAddress,
	)
	c.publish(EventOpened, entry)
	return entry, nil
}

// CloseMostRecentOpenSession closes the user's newest open entry.
//
// If another logout closes the same entry first, the next newest open entry
// is tried, up to maxCloseAttempts times. With nothing open the result is
// ErrNoOpenSession, so repeated logouts are NotFound.
func (c *Correlator) CloseMostRecentOpenSession(ctx context.Context, userID string) (*audit.SessionLogEntry, error) {
	for attempt := 1; attempt <= maxCloseAttempts; attempt++ {
		entry, err := c.sessions.FindMostRecentOpenByUser(ctx, userID)
		if errors.Is(err, audit.ErrEntryNotFound) {
			return nil, ErrNoOpenSession
		}
		if err != nil {
			return nil, fmt.Errorf("finding open session: %w", err)
		}

		logout := c.now().UTC()
		if logout.Before(entry.LoginTime) {
			logout = entry.LoginTime
		}

		err = c.sessions.Close(ctx, entry.ID, logout)
		if errors.Is(err, audit.ErrAlreadyClosed) {
			c.logger.Debug("session closed concurrently, retrying",
				"user_id", userID,
				"session_id", entry.ID,
				"attempt", attempt,
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("closing session %s: %w", entry.ID, err)
		}

		entry.LogoutTime = &logout
		c.logger.Info("session closed",
			"user_id", userID,
			"session_id", entry.ID,
			"duration", entry.Duration().String(),
		)
		c.publish(EventClosed, entry)
		return entry, nil
	}

	return nil, ErrNoOpenSession
}

func (c *Correlator) publish(t EventType, entry *audit.SessionLogEntry) {
	if c.events == nil {
		return
	}
	c.events.Publish(Event{Type: t, Session: *entry, At: c.now().UTC()})
}

// upgradeHash replaces a legacy hash after a successful login. Failure is
// logged; the login itself still succeeds.
func (c *Correlator) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = c.users.UpdatePassword(ctx, userID, hash)
	}
	if err != nil {
		c.logger.Warn("password hash upgrade failed", "user_id", userID, "error", err)
		return
	}
	c.logger.Info("password hash upgraded", "user_id", userID)
}

// burnVerify spends the same work as a real verification so unknown
// usernames cost as much as wrong passwords.
func (c *Correlator) burnVerify(password string) {
	c.dummyOnce.Do(func() {
		c.dummyHash, _ = auth.HashPassword("session-audit-dummy") //nolint:errcheck // empty hash just skips the burn
	})
	if c.dummyHash != "" {
		_, _ = auth.VerifyPassword(password, c.dummyHash) //nolint:errcheck // result is discarded
	}
}
