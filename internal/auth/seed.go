package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// SeedAdmin creates the configured administrator on first boot. It is a
// no-op when email is empty or the account already exists. An existing
// account keeps its role; seeding never promotes.
func SeedAdmin(ctx context.Context, userRepo UserRepository, email, password string, logger *slog.Logger) (bool, error) {
	email = NormaliseEmail(email)
	if email == "" {
		return false, nil
	}
	if password == "" {
		return false, errors.New("seed admin password is required")
	}

	exists, err := userRepo.EmailExists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("checking seed admin: %w", err)
	}
	if exists {
		logger.Info("seed admin exists, skipping", "email", email)
		return false, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hashing seed admin password: %w", err)
	}

	username, err := GenerateUsername(ctx, userRepo)
	if err != nil {
		return false, err
	}

	admin := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleAdmin,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("creating seed admin: %w", err)
	}

	logger.Warn("seed admin account created",
		"email", email,
		"user_id", admin.ID,
		"action_required", "change this password after first login",
	)
	return true, nil
}
