package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/session-audit/internal/apperr"
	"github.com/nerrad567/session-audit/internal/auth"
)

// Default page bounds, used when GateConfig leaves them unset.
const (
	DefaultPageSize = 10
	MaxPageSize     = 200
)

// TokenVerifier resolves a bearer token to the user ID it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserFinder looks up a single user by predicate.
type UserFinder interface {
	FindOne(ctx context.Context, p auth.Predicate) (*auth.User, error)
}

// GateConfig tunes the audit gate.
type GateConfig struct {
	// AllowCrossUser lets an Auditor read another user's log by naming it
	// in the query. When false, only the caller's own log is readable.
	AllowCrossUser bool

	DefaultPageSize int
	MaxPageSize     int
}

// Query selects whose log to read and which page.
// Zero Limit means the default page size.
type Query struct {
	UserID string
	Limit  int
	Skip   int
}

// Gate decides whether a caller may read the session log and serves the read.
type Gate struct {
	tokens TokenVerifier
	users  UserFinder
	repo   Repository
	cfg    GateConfig
}

// NewGate creates an audit gate.
func NewGate(tokens TokenVerifier, users UserFinder, repo Repository, cfg GateConfig) *Gate {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = MaxPageSize
	}
	if cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = cfg.MaxPageSize
	}
	return &Gate{tokens: tokens, users: users, repo: repo, cfg: cfg}
}

// FetchAudit verifies token, checks that its subject is an Auditor and
// returns a page of the selected user's log, newest first.
//
// A bad token, a caller who is not an Auditor, and a cross-user query
// when cross-user reads are disabled all fail with kind Unauthorized.
func (g *Gate) FetchAudit(ctx context.Context, token string, q Query) (*ListResult, error) {
	callerID, err := g.tokens.Verify(token)
	if err != nil {
		// The token error keeps its own Invalid kind underneath.
		return nil, apperr.Wrap(apperr.Unauthorized, ErrUnauthorized.Message, err)
	}

	if _, err := g.Authorize(ctx, callerID); err != nil {
		return nil, err
	}

	subject := callerID
	if q.UserID != "" && q.UserID != callerID {
		if !g.cfg.AllowCrossUser {
			return nil, fmt.Errorf("%w: cross-user audit disabled", ErrUnauthorized)
		}
		subject = q.UserID
	}

	limit, skip := g.page(q)
	return g.repo.ListByUser(ctx, subject, limit, skip)
}

// Authorize returns the caller if they hold the Auditor role.
// Unknown callers and non-Auditors get the same ErrUnauthorized.
func (g *Gate) Authorize(ctx context.Context, callerID string) (*auth.User, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	u, err := g.users.FindOne(ctx, auth.Predicate{ID: callerID, Role: auth.RoleAuditor})
	if errors.Is(err, auth.ErrUserNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("loading caller: %w", err)
	}
	return u.Profile(), nil
}

func (g *Gate) page(q Query) (limit, skip int) {
	limit = q.Limit
	if limit <= 0 {
		limit = g.cfg.DefaultPageSize
	}
	if limit > g.cfg.MaxPageSize {
		limit = g.cfg.MaxPageSize
	}
	skip = q.Skip
	if skip < 0 {
		skip = 0
	}
	return limit, skip
}
