package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// seedPasswordBytes is the number of random bytes for the seed password.
const seedPasswordBytes = 16

// SeedAuditor creates an Auditor account named username on first boot,
// when no users exist. The generated password is logged once at warn
// level and returned. Seeding is skipped (empty password) when username is
// empty or the store already has accounts.
func SeedAuditor(ctx context.Context, users UserRepository, username string, logger *slog.Logger) (string, error) {
	if username == "" {
		return "", nil
	}

	count, err := users.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}
	if count > 0 {
		logger.Info("users exist, skipping auditor seed")
		return "", nil
	}

	passwordBytes := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(passwordBytes); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	password := hex.EncodeToString(passwordBytes)

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	auditor := &User{
		Username:     username,
		FirstName:    "Seed",
		LastName:     "Auditor",
		PasswordHash: hash,
		Role:         RoleAuditor,
	}
	if err := users.Create(ctx, auditor); err != nil {
		return "", fmt.Errorf("creating seed auditor: %w", err)
	}

	logger.Warn("seed auditor account created",
		"username", username,
		"password", password,
		"action_required", "change this password immediately",
	)

	return password, nil
}
