package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, request{method: http.MethodGet, path: "/api/v1/"})
	assert.Len(t, rec.Header().Get("X-Request-ID"), requestIDBytes*2)

	rec = env.do(t, request{method: http.MethodGet, path: "/api/v1/", headers: map[string]string{"X-Request-ID": "client-id"}})
	assert.Equal(t, "client-id", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, withCORS("https://app.example.com"), func(d *Deps) { d.DevMode = false })

	allowed := env.do(t, request{method: http.MethodOptions, path: "/api/v1/blogs",
		headers: map[string]string{"Origin": "https://app.example.com"}})
	assert.Equal(t, http.StatusNoContent, allowed.Code)
	assert.Equal(t, "https://app.example.com", allowed.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", allowed.Header().Get("Access-Control-Allow-Credentials"))

	denied := env.do(t, request{method: http.MethodGet, path: "/api/v1/",
		headers: map[string]string{"Origin": "https://evil.example.com"}})
	assert.Empty(t, denied.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_DevelopmentAllowsAnyOrigin(t *testing.T) {
	env := newTestEnv(t, withCORS("https://app.example.com"))

	rec := env.do(t, request{method: http.MethodGet, path: "/api/v1/",
		headers: map[string]string{"Origin": "http://localhost:5173"}})
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, withRateLimit(3))
	assert.Equal(t, limiterMemory, env.srv.limiterKind)

	for i := 0; i < 3; i++ {
		rec := env.do(t, request{method: http.MethodGet, path: "/api/v1/"})
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := env.do(t, request{method: http.MethodGet, path: "/api/v1/"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	e := decodeError(t, rec)
	assert.Equal(t, CodeTooManyRequests, e.Code)
	assert.Equal(t, msgRateLimited, e.Message)

	// Another client has its own budget.
	other := env.do(t, request{method: http.MethodGet, path: "/api/v1/", remote: "203.0.113.9:40000"})
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimit_DisabledByDefault(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, limiterDisabled, env.srv.limiterKind)
	assert.Nil(t, env.srv.limiter)
}

func TestBodySizeLimit(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Config.MaxBodyBytes = 64 })

	rec := env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "someone@example.com",
		"password": "a-password-long-enough-to-push-the-body-over-the-limit",
	})
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, CodePayloadTooLarge, decodeError(t, rec).Code)
}

func TestRecovery(t *testing.T) {
	env := newTestEnv(t)
	h := env.srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeServer, decodeError(t, rec).Code)
}

func TestRoot(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, request{method: http.MethodGet, path: "/api/v1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, "API is live", body["message"])
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.NotEmpty(t, body["timestamp"])
}
