package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	usernamePrefix     = "user-"
	usernameSuffixLen  = 8
	usernameMaxRetries = 5
	base36Alphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// RandomBase36 returns n cryptographically random base36 characters.
func RandomBase36(n int) (string, error) {
	buf := make([]byte, n)
	limit := big.NewInt(int64(len(base36Alphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generating random suffix: %w", err)
		}
		buf[i] = base36Alphabet[idx.Int64()]
	}
	return string(buf), nil
}

// UsernameChecker reports whether a username is taken.
type UsernameChecker interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// GenerateUsername returns an unused "user-xxxxxxxx" name for a new account.
func GenerateUsername(ctx context.Context, users UsernameChecker) (string, error) {
	for range usernameMaxRetries {
		suffix, err := RandomBase36(usernameSuffixLen)
		if err != nil {
			return "", err
		}
		name := usernamePrefix + suffix

		taken, err := users.UsernameExists(ctx, name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
	}
	return "", fmt.Errorf("generating username: %w", ErrUsernameExists)
}
