package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token classes, carried in the "typ" claim.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// CodecConfig holds the signing material for both token classes.
// It is built once at startup and never mutated.
type CodecConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Claims is the token payload. The subject is the user ID; the role is
// deliberately absent so that role changes take effect on the next request.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}

// Codec signs and verifies access and refresh tokens.
// It is safe for concurrent use.
type Codec struct {
	cfg    CodecConfig
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	switch {
	case len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0:
		return nil, errors.New("codec: both secrets are required")
	case string(cfg.AccessSecret) == string(cfg.RefreshSecret):
		return nil, errors.New("codec: access and refresh secrets must differ")
	case cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0:
		return nil, errors.New("codec: token lifetimes must be positive")
	}
	return &Codec{
		cfg:    cfg,
		now:    time.Now,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration {
	return c.cfg.RefreshTTL
}

// IssueAccessToken signs a short-lived token for subjectID with the access secret.
func (c *Codec) IssueAccessToken(subjectID string) (string, error) {
	return c.issue(subjectID, tokenTypeAccess, c.cfg.AccessSecret, c.cfg.AccessTTL)
}

// IssueRefreshToken signs a long-lived token for subjectID with the refresh secret.
func (c *Codec) IssueRefreshToken(subjectID string) (string, error) {
	return c.issue(subjectID, tokenTypeRefresh, c.cfg.RefreshSecret, c.cfg.RefreshTTL)
}

// VerifyAccessToken checks signature and expiry against the access secret
// and returns the subject. Errors wrap ErrTokenExpired or ErrTokenInvalid.
func (c *Codec) VerifyAccessToken(token string) (string, error) {
	return c.verify(token, tokenTypeAccess, c.cfg.AccessSecret)
}

// VerifyRefreshToken is VerifyAccessToken for the refresh class.
func (c *Codec) VerifyRefreshToken(token string) (string, error) {
	return c.verify(token, tokenTypeRefresh, c.cfg.RefreshSecret)
}

func (c *Codec) issue(subjectID, typ string, secret []byte, ttl time.Duration) (string, error) {
	if subjectID == "" {
		return "", errors.New("issuing token: empty subject")
	}

	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Type: typ,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", typ, err)
	}
	return signed, nil
}

func (c *Codec) verify(raw, typ string, secret []byte) (string, error) {
	claims := &Claims{}
	token, err := c.parser.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		// Expiry is only reported once the signature has verified, so an
		// expired token here is still a genuine one.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return "", ErrTokenInvalid
	}
	if claims.Type != typ {
		return "", fmt.Errorf("%w: expected %s token", ErrTokenInvalid, typ)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return claims.Subject, nil
}
