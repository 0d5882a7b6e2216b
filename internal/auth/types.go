package auth

import (
	"errors"
	"slices"
	"time"
)

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleAdmin manages blogs, users, audit history and metrics.
	// Only whitelisted emails may register as admin.
	RoleAdmin Role = "admin"

	// RoleBuyer is the default role for self-registered accounts.
	RoleBuyer Role = "buyer"

	// RoleSeller reads, comments and likes like a buyer.
	RoleSeller Role = "seller"
)

// DefaultRole is assigned when registration does not name a role.
const DefaultRole = RoleBuyer

// ValidRoles is the closed set of user roles.
var ValidRoles = []Role{RoleAdmin, RoleBuyer, RoleSeller}

// IsValidUserRole returns true if the role is a valid role for a user account.
func IsValidUserRole(r Role) bool {
	return slices.Contains(ValidRoles, r)
}

// RoleSet is the set of roles allowed through an authorization check.
type RoleSet []Role

// Allows reports whether r is a member of the set.
func (s RoleSet) Allows(r Role) bool {
	return slices.Contains(s, r)
}

// Common role sets.
var (
	AnyRole   = RoleSet{RoleAdmin, RoleBuyer, RoleSeller}
	AdminOnly = RoleSet{RoleAdmin}
)

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RefreshToken is a stored refresh token record. Only the hash of the raw
// token is kept.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"` // never serialised
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameExists      = errors.New("username already exists")
	ErrEmailExists         = errors.New("email already exists")
	ErrInvalidRole         = errors.New("invalid role")
	ErrTokenExpired        = errors.New("token has expired")
	ErrTokenInvalid        = errors.New("invalid token")
	ErrTokenRevoked        = errors.New("token has been revoked")
	ErrForbidden           = errors.New("insufficient permissions")
	ErrAdminNotWhitelisted = errors.New("email is not allowed to register as admin")
)
