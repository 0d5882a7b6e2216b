package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CredentialLookup finds the account a login names.
type CredentialLookup interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// Authenticator verifies login credentials.
type Authenticator struct {
	users CredentialLookup
}

// NewAuthenticator creates an Authenticator backed by users.
func NewAuthenticator(users CredentialLookup) *Authenticator {
	return &Authenticator{users: users}
}

// Authenticate returns the user owning email if password matches.
//
// An unknown email and a wrong password both yield ErrInvalidCredentials,
// and the unknown-email path still pays for one hash verification, so
// neither the response nor its latency reveals which check failed.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := a.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			burnVerification(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up credentials: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password for %s: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
