package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TokenStore persists issued refresh tokens. A refresh token is only
// exchangeable while its record exists; deleting the record revokes it
// even though the signature still verifies.
type TokenStore interface {
	Record(ctx context.Context, token, userID string, expiresAt time.Time) error
	Exists(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, token string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// SQLiteTokenStore implements TokenStore using SQLite.
// Multiple live tokens per user are allowed (one per device/session).
type SQLiteTokenStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewTokenStore creates a new SQLite-backed refresh token store.
func NewTokenStore(db *sql.DB) *SQLiteTokenStore {
	return &SQLiteTokenStore{db: db, now: time.Now}
}

// HashToken computes the SHA-256 hash of a raw token string for storage.
// Raw tokens are never stored, only their hashes.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// Record stores the hash of token against userID.
func (s *SQLiteTokenStore) Record(ctx context.Context, token, userID string, expiresAt time.Time) error {
	if token == "" || userID == "" {
		return fmt.Errorf("recording refresh token: %w", ErrTokenInvalid)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		"rt-"+uuid.NewString(), userID, HashToken(token),
		expiresAt.UTC().Format(time.RFC3339),
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording refresh token: %w", err)
	}
	return nil
}

// Exists reports whether a record for this exact raw token is present.
func (s *SQLiteTokenStore) Exists(ctx context.Context, token string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM refresh_tokens WHERE token_hash = ?", HashToken(token),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking refresh token: %w", err)
	}
	return n > 0, nil
}

// Delete removes the record for token. Deleting an absent token is not an error.
func (s *SQLiteTokenStore) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token_hash = ?", HashToken(token),
	); err != nil {
		return fmt.Errorf("deleting refresh token: %w", err)
	}
	return nil
}

// DeleteAllForUser revokes every session of a user.
func (s *SQLiteTokenStore) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("deleting refresh tokens for user: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return n, nil
}

// DeleteExpired removes records whose embedded expiry has passed.
// Nothing calls this on a schedule; it is an operator maintenance hook.
func (s *SQLiteTokenStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < ?",
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired refresh tokens: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return n, nil
}
