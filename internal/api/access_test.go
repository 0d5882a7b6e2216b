package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/inkwell-core/internal/auth"
)

func signAccess(t *testing.T, subject string, expires time.Time, secret string) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(expires.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Type: "access",
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthenticate_Failures(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.register(t, "reader@example.com", auth.RoleBuyer)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", msgNoToken},
		{"wrong scheme", "Basic " + buyer.token, msgNoToken},
		{"empty bearer", "Bearer ", msgNoToken},
		{"garbage", "Bearer not-a-jwt", msgAccessInvalid},
		{"wrong secret", "Bearer " + signAccess(t, buyer.id, time.Now().Add(time.Hour), "some-other-secret-32-bytes-long!!"), msgAccessInvalid},
		{"expired", "Bearer " + signAccess(t, buyer.id, time.Now().Add(-time.Minute), testAccessSecret), msgAccessExpired},
		{"refresh token as access", "Bearer " + buyer.refresh.Value, msgAccessInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec := env.do(t, request{method: http.MethodGet, path: "/api/v1/users/current", headers: headers})

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, CodeAuthentication, e.Code)
			assert.Equal(t, tt.message, e.Message)
		})
	}
}

func TestAuthorize_WrongRoleIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.register(t, "buyer@example.com", auth.RoleBuyer)

	for _, path := range []string{"/api/v1/users", "/api/v1/audit-logs", "/api/v1/metrics"} {
		rec := env.doJSON(t, http.MethodGet, path, buyer.token, nil)
		require.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.Equal(t, msgForbidden, decodeError(t, rec).Message)
	}
}

func TestAuthorize_DeletedUserIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.register(t, "gone@example.com", auth.RoleBuyer)

	require.NoError(t, env.users.Delete(t.Context(), buyer.id))

	rec := env.doJSON(t, http.MethodGet, "/api/v1/users/current", buyer.token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, CodeNotFound, e.Code)
	assert.Equal(t, msgUserNotFound, e.Message)
}

func TestAuthorize_RoleIsReadPerRequest(t *testing.T) {
	env := newTestEnv(t)
	seller := env.register(t, "seller@example.com", auth.RoleSeller)

	rec := env.doJSON(t, http.MethodGet, "/api/v1/users", seller.token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	_, err := env.db.ExecContext(t.Context(), "UPDATE users SET role = 'admin' WHERE id = ?", seller.id)
	require.NoError(t, err)

	// Same token, new role.
	rec = env.doJSON(t, http.MethodGet, "/api/v1/users", seller.token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticated_LogoutNeedsToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/v1/auth/logout", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgNoToken, decodeError(t, rec).Message)
}
