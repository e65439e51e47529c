package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/session-audit/internal/apperr"
)

// timeLayout is fixed-width so that stored timestamps sort lexically in
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SessionLogEntry records one login and, once closed, its logout.
type SessionLogEntry struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	LoginTime     time.Time  `json:"loginTime"`
	LogoutTime    *time.Time `json:"logoutTime,omitempty"`
	ClientAddress string     `json:"clientAddress"`
}

// Open reports whether the session has not been closed yet.
func (e *SessionLogEntry) Open() bool {
	return e.LogoutTime == nil
}

// Duration returns how long a closed session lasted, or zero while open.
func (e *SessionLogEntry) Duration() time.Duration {
	if e.LogoutTime == nil {
		return 0
	}
	return e.LogoutTime.Sub(e.LoginTime)
}

// ListResult is one page of a user's session log, newest first.
type ListResult struct {
	Entries []SessionLogEntry `json:"entries"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Skip    int               `json:"skip"`
}

// Sentinel errors for session log operations.
var (
	ErrEntryNotFound = apperr.New(apperr.NotFound, "no open session")
	ErrAlreadyClosed = apperr.New(apperr.NotFound, "session already closed")
	ErrUnauthorized  = apperr.New(apperr.Unauthorized, "unauthorized")
	ErrMissingUserID = apperr.New(apperr.ValidationFailed, "session entry has no user")
)

// Repository defines the interface for session log persistence.
type Repository interface {
	Create(ctx context.Context, entry *SessionLogEntry) error
	FindMostRecentOpenByUser(ctx context.Context, userID string) (*SessionLogEntry, error)
	Close(ctx context.Context, id string, logoutTime time.Time) error
	ListByUser(ctx context.Context, userID string, limit, skip int) (*ListResult, error)
}

// SQLiteRepository stores the session log in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new session log repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new open entry. The ID and LoginTime are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, entry *SessionLogEntry) error {
	if entry.UserID == "" {
		return ErrMissingUserID
	}
	if entry.ID == "" {
		entry.ID = "ses-" + uuid.NewString()[:8]
	}
	if entry.LoginTime.IsZero() {
		entry.LoginTime = time.Now()
	}
	entry.LoginTime = entry.LoginTime.UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_logs (id, user_id, login_time, logout_time, client_address)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.LoginTime.Format(timeLayout),
		formatNullableTime(entry.LogoutTime), entry.ClientAddress,
	)
	if err != nil {
		return fmt.Errorf("inserting session log: %w", err)
	}
	return nil
}

// FindMostRecentOpenByUser returns the user's open entry with the latest
// login time, or ErrEntryNotFound.
func (r *SQLiteRepository) FindMostRecentOpenByUser(ctx context.Context, userID string) (*SessionLogEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, login_time, logout_time, client_address
		 FROM session_logs
		 WHERE user_id = ? AND logout_time IS NULL
		 ORDER BY login_time DESC, rowid DESC
		 LIMIT 1`,
		userID,
	)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Close sets the logout time of an open entry. It only touches entries that
// are still open; if the entry was closed in the meantime (or never existed)
// ErrAlreadyClosed is returned and nothing changes.
func (r *SQLiteRepository) Close(ctx context.Context, id string, logoutTime time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE session_logs SET logout_time = ? WHERE id = ? AND logout_time IS NULL",
		logoutTime.UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("closing session log: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("closing session log: %w", err)
	}
	if rows == 0 {
		return ErrAlreadyClosed
	}
	return nil
}

// ListByUser returns one page of a user's entries, newest login first.
// limit and skip are used as given; callers clamp them.
func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string, limit, skip int) (*ListResult, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM session_logs WHERE user_id = ?", userID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting session logs: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, login_time, logout_time, client_address
		 FROM session_logs
		 WHERE user_id = ?
		 ORDER BY login_time DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("querying session logs: %w", err)
	}
	defer rows.Close()

	entries := []SessionLogEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session logs: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   limit,
		Skip:    skip,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEntry reads one row. sql.ErrNoRows is returned unwrapped.
func scanEntry(s scanner) (*SessionLogEntry, error) {
	var (
		e          SessionLogEntry
		loginTime  string
		logoutTime sql.NullString
	)
	if err := s.Scan(&e.ID, &e.UserID, &loginTime, &logoutTime, &e.ClientAddress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning session log: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, loginTime)
	if err != nil {
		return nil, fmt.Errorf("parsing login_time %q: %w", loginTime, err)
	}
	e.LoginTime = t

	if logoutTime.Valid {
		t, err := time.Parse(time.RFC3339Nano, logoutTime.String)
		if err != nil {
			return nil, fmt.Errorf("parsing logout_time %q: %w", logoutTime.String, err)
		}
		e.LogoutTime = &t
	}
	return &e, nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}
