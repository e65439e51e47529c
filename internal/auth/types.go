package auth

import (
	"regexp"
	"time"

	"github.com/nerrad567/session-audit/internal/apperr"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// IsValidUsername checks if a username meets format requirements.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// Role decides what an account may see.
type Role string

const (
	// RoleStandard can authenticate and manage accounts but cannot read
	// session history.
	RoleStandard Role = "Standard"

	// RoleAuditor may additionally read session history.
	RoleAuditor Role = "Auditor"
)

// IsValidRole returns true if r is a role an account can hold.
func IsValidRole(r Role) bool {
	return r == RoleStandard || r == RoleAuditor
}

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile returns a copy of u with the password hash cleared. Every user
// handed out of this package's services goes through it.
func (u User) Profile() *User {
	u.PasswordHash = ""
	return &u
}

// Predicate selects a user by any combination of fields. Empty fields are
// ignored; at least one must be set.
type Predicate struct {
	ID       string
	Username string
	Role     Role
}

// Sentinel errors for auth operations.
var (
	ErrUserNotFound   = apperr.New(apperr.NotFound, "user not found")
	ErrUsernameExists = apperr.New(apperr.ValidationFailed, "username already exists")
	ErrInvalidRole    = apperr.New(apperr.ValidationFailed, "invalid role")
	ErrRoleChange     = apperr.New(apperr.Unauthorized, "only an Auditor can change roles")
	ErrEmptyPredicate = apperr.New(apperr.ValidationFailed, "predicate has no fields")
	ErrTokenInvalid   = apperr.New(apperr.Invalid, "invalid token")
)
