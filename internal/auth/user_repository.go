package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	FindOne(ctx context.Context, p Predicate) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, limit, skip int) ([]User, error)
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = "id, username, first_name, last_name, password_hash, role, created_at, updated_at"

// Create inserts a new user account. The ID is generated if empty and the
// role defaults to Standard.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()[:8]
	}
	if user.Role == "" {
		user.Role = RoleStandard
	}
	if !IsValidRole(user.Role) {
		return ErrInvalidRole
	}

	now := time.Now().UTC().Format(time.RFC3339)
	user.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	user.UpdatedAt = user.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.FirstName, user.LastName,
		user.PasswordHash, string(user.Role), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their unique ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.FindOne(ctx, Predicate{ID: id})
}

// GetByUsername retrieves a user by their username. Matching is case-sensitive.
func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.FindOne(ctx, Predicate{Username: username})
}

// FindOne returns the user matching every non-empty field of p.
func (r *SQLiteUserRepository) FindOne(ctx context.Context, p Predicate) (*User, error) {
	var (
		clauses []string
		args    []any
	)
	if p.ID != "" {
		clauses = append(clauses, "id = ?")
		args = append(args, p.ID)
	}
	if p.Username != "" {
		clauses = append(clauses, "username = ?")
		args = append(args, p.Username)
	}
	if p.Role != "" {
		clauses = append(clauses, "role = ?")
		args = append(args, string(p.Role))
	}
	if len(clauses) == 0 {
		return nil, ErrEmptyPredicate
	}

	query := "SELECT " + userColumns + " FROM users WHERE " + strings.Join(clauses, " AND ") + " LIMIT 1"
	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

// ExistsByUsername reports whether username is taken.
func (r *SQLiteUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking username: %w", err)
	}
	return exists == 1, nil
}

// Update modifies a user's mutable fields (username, names, role) and,
// when user.PasswordHash is set, the hash in the same statement.
func (r *SQLiteUserRepository) Update(ctx context.Context, user *User) error {
	if !IsValidRole(user.Role) {
		return ErrInvalidRole
	}

	now := time.Now().UTC().Format(time.RFC3339)
	user.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = ?, first_name = ?, last_name = ?, role = ?,
			password_hash = COALESCE(NULLIF(?, ''), password_hash), updated_at = ?
		WHERE id = ?`,
		user.Username, user.FirstName, user.LastName, string(user.Role),
		user.PasswordHash, now, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("updating user: %w", err)
	}

	return requireRow(result, "updating user")
}

// UpdatePassword changes a user's password hash.
func (r *SQLiteUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	return requireRow(result, "updating password")
}

// Delete removes a user account by ID. Its session log goes with it.
func (r *SQLiteUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	return requireRow(result, "deleting user")
}

// Count returns the total number of user accounts.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// List returns one page of users ordered by creation date.
func (r *SQLiteUserRepository) List(ctx context.Context, limit, skip int) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?",
		limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanUser scans a user from any scanner (Row or Rows).
func scanUser(s scanner) (*User, error) {
	var u User
	var role, createdAt, updatedAt string

	err := s.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName,
		&u.PasswordHash, &role, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.Role = Role(role)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &u, nil
}

// requireRow maps a write that touched no rows to ErrUserNotFound.
func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
