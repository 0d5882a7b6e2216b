// Package auth provides authentication and authorisation for Inkwell Core.
//
// It implements a three-role model (admin, buyer, seller) with:
//   - Argon2id password hashing
//   - HS256 access and refresh tokens with independent secrets and lifetimes
//   - A SQLite refresh token store holding only token hashes
//   - Generic invalid-credentials failures that do not reveal whether the
//     email or the password was wrong
//   - Static role-permission mapping
//
// Access tokens are verified by signature and expiry only and never touch
// the database. They carry no role: authorization reads the role afresh on
// every request, so demoting a user takes effect immediately at the cost of
// one indexed read per protected request.
package auth
