package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Session is the result of a successful register or login.
type Session struct {
	User             *User
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Registration is a validated sign-up request.
type Registration struct {
	Email    string
	Password string
	Role     Role
}

// SessionService issues, exchanges and revokes tokens. It ties together the
// codec, the refresh token store and the user repository.
type SessionService struct {
	codec       *Codec
	tokens      TokenStore
	users       UserRepository
	authn       *Authenticator
	adminEmails map[string]struct{}
	logger      *slog.Logger
}

// NewSessionService creates a SessionService. adminEmails is the whitelist of
// addresses allowed to register with the admin role.
func NewSessionService(codec *Codec, tokens TokenStore, users UserRepository, adminEmails []string, logger *slog.Logger) *SessionService {
	whitelist := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		whitelist[NormaliseEmail(e)] = struct{}{}
	}
	return &SessionService{
		codec:       codec,
		tokens:      tokens,
		users:       users,
		authn:       NewAuthenticator(users),
		adminEmails: whitelist,
		logger:      logger,
	}
}

// NormaliseEmail trims and lower-cases an address.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CanRegisterAdmin reports whether email is on the admin whitelist.
func (s *SessionService) CanRegisterAdmin(email string) bool {
	_, ok := s.adminEmails[NormaliseEmail(email)]
	return ok
}

// Register creates an account and opens its first session.
func (s *SessionService) Register(ctx context.Context, reg Registration) (*Session, error) {
	email := NormaliseEmail(reg.Email)
	role := reg.Role
	if role == "" {
		role = DefaultRole
	}
	if !IsValidUserRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if role == RoleAdmin && !s.CanRegisterAdmin(email) {
		s.logger.Warn("user tried to register as an admin but is not whitelisted", "email", email)
		return nil, ErrAdminNotWhitelisted
	}

	taken, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailExists
	}

	username, err := GenerateUsername(ctx, s.users)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return s.open(ctx, user)
}

// Login verifies credentials and opens a new session. Concurrent sessions
// for the same user are allowed.
func (s *SessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.authn.Authenticate(ctx, NormaliseEmail(email), password)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return s.open(ctx, user)
}

// Refresh exchanges a refresh token for a new access token. The store is
// consulted before the signature: a revoked token fails even when it would
// still verify. The refresh token itself is not rotated.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	ok, err := s.tokens.Exists(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrTokenRevoked
	}

	userID, err := s.codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	access, err := s.codec.IssueAccessToken(userID)
	if err != nil {
		return "", err
	}

	s.logger.Debug("access token refreshed", "user_id", userID)
	return access, nil
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Delete(ctx, refreshToken)
}

// RevokeAll ends every session of a user.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) error {
	n, err := s.tokens.DeleteAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	s.logger.Info("sessions revoked", "user_id", userID, "count", n)
	return nil
}

func (s *SessionService) open(ctx context.Context, user *User) (*Session, error) {
	access, err := s.codec.IssueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.codec.RefreshTTL())
	if err := s.tokens.Record(ctx, refresh, user.ID, expiresAt); err != nil {
		return nil, err
	}

	return &Session{
		User:             user,
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: expiresAt,
	}, nil
}

// IsCredentialError reports whether err should be answered with the
// generic invalid-credentials response.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrEmailExists)
}
