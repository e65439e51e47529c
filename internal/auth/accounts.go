package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/session-audit/internal/apperr"
)

// Page size bounds for account listings.
const (
	defaultListLimit = 10
	maxListLimit     = 200
)

// UserPage is one page of account profiles plus the total account count.
type UserPage struct {
	TotalCount int    `json:"totalCount"`
	Result     []User `json:"result"`
}

// RegisterInput carries the fields accepted when creating an account.
// There is no role: self-registered accounts are always Standard.
type RegisterInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// UpdateInput carries the fields a caller wants to change. Nil fields are
// left untouched.
type UpdateInput struct {
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *Role   `json:"role"`
}

// Accounts is the account management service behind the user CRUD routes.
// Every user it returns has its password hash cleared.
type Accounts struct {
	users UserRepository
}

// NewAccounts creates an account service backed by users.
func NewAccounts(users UserRepository) *Accounts {
	return &Accounts{users: users}
}

// Register creates a Standard account. A taken username fails with kind
// ValidationFailed.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if !IsValidUsername(in.Username) {
		return nil, apperr.Errorf(apperr.ValidationFailed, "Username %q is invalid", in.Username)
	}
	if in.Password == "" {
		return nil, apperr.New(apperr.ValidationFailed, "Password is required")
	}
	exists, err := a.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, usernameTaken(in.Username)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         RoleStandard,
	}
	if err := a.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUsernameExists) {
			return nil, usernameTaken(in.Username)
		}
		return nil, err
	}
	return u.Profile(), nil
}

// List returns one page of profiles. A non-positive limit means the
// default of 10; limits above 200 are capped. Negative skips become 0.
func (a *Accounts) List(ctx context.Context, limit, skip int) (*UserPage, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if skip < 0 {
		skip = 0
	}

	total, err := a.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	users, err := a.users.List(ctx, limit, skip)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return &UserPage{TotalCount: total, Result: users}, nil
}

// Get returns the profile of the user with the given ID.
func (a *Accounts) Get(ctx context.Context, id string) (*User, error) {
	u, err := a.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Profile(), nil
}

// Update applies in to the user with the given ID on behalf of callerID.
// Username uniqueness is checked only when the username changes, and the
// password is re-hashed only when one is supplied. Changing a role needs
// an Auditor caller; anyone else gets ErrRoleChange.
//
// All changes, the new hash included, are stored in one write.
func (a *Accounts) Update(ctx context.Context, callerID, id string, in UpdateInput) error {
	u, err := a.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.PasswordHash = ""

	if in.Username != nil && *in.Username != u.Username {
		if !IsValidUsername(*in.Username) {
			return apperr.Errorf(apperr.ValidationFailed, "Username %q is invalid", *in.Username)
		}
		exists, err := a.users.ExistsByUsername(ctx, *in.Username)
		if err != nil {
			return err
		}
		if exists {
			return usernameTaken(*in.Username)
		}
		u.Username = *in.Username
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Role != nil && *in.Role != u.Role {
		if !IsValidRole(*in.Role) {
			return apperr.Wrap(apperr.ValidationFailed, fmt.Sprintf("Role %q is invalid", *in.Role), ErrInvalidRole)
		}
		if err := a.requireAuditor(ctx, callerID); err != nil {
			return err
		}
		u.Role = *in.Role
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		u.PasswordHash = hash
	}

	if err := a.users.Update(ctx, u); err != nil {
		if errors.Is(err, ErrUsernameExists) {
			return usernameTaken(u.Username)
		}
		return err
	}
	return nil
}

func (a *Accounts) requireAuditor(ctx context.Context, callerID string) error {
	if callerID == "" {
		return ErrRoleChange
	}
	_, err := a.users.FindOne(ctx, Predicate{ID: callerID, Role: RoleAuditor})
	if errors.Is(err, ErrUserNotFound) {
		return ErrRoleChange
	}
	if err != nil {
		return fmt.Errorf("loading caller: %w", err)
	}
	return nil
}

// Delete removes the user with the given ID.
func (a *Accounts) Delete(ctx context.Context, id string) error {
	return a.users.Delete(ctx, id)
}

func usernameTaken(username string) error {
	return apperr.Wrap(apperr.ValidationFailed, fmt.Sprintf("Username \"%s\" is already taken", username), ErrUsernameExists)
}
