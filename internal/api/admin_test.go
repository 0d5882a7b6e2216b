package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/inkwell-core/internal/audit"
	"github.com/nerrad567/inkwell-core/internal/auth"
	"github.com/nerrad567/inkwell-core/internal/blog"
)

type stubCheck struct{ err error }

func (c stubCheck) HealthCheck(context.Context) error { return c.err }

func TestAuditLogs_RecordMutations(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	post := env.createBlog(t, admin.token, "Audited", blog.StatusPublished)

	var result audit.ListResult
	require.Eventually(t, func() bool {
		rec := env.doJSON(t, http.MethodGet, "/api/v1/audit-logs?entity_type=blog&action=create", admin.token, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		decodeData(t, rec, &result)
		return result.Total == 1
	}, 2*time.Second, 20*time.Millisecond)

	entry := result.Logs[0]
	assert.Equal(t, post.ID, entry.EntityID)
	assert.Equal(t, admin.id, entry.UserID)
	assert.Contains(t, entry.Details, "requestId")
}

func TestAuditLogs_FilterValidation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)

	rec := env.doJSON(t, http.MethodGet, "/api/v1/audit-logs?limit=abc", admin.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSON(t, http.MethodGet, "/api/v1/audit-logs?user_id="+admin.id+"&limit=5", admin.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result audit.ListResult
	decodeData(t, rec, &result)
	assert.Equal(t, 5, result.Limit)
	assert.NotNil(t, result.Logs)
}

func TestEvents_PublishedToBus(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	reader := env.register(t, "liker@example.com", auth.RoleBuyer)
	post := env.createBlog(t, admin.token, "Bus", blog.StatusPublished)

	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodPost, "/api/v1/likes/blog/"+post.ID, reader.token, nil).Code)

	require.Eventually(t, func() bool {
		return len(env.events.published()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"inkwell/events/blog/create", "inkwell/events/blog/like"}, env.events.published())
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, withRateLimit(100))
	admin := env.admin(t)

	rec := env.doJSON(t, http.MethodGet, "/api/v1/metrics", admin.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var m SystemMetrics
	decodeData(t, rec, &m)
	assert.Equal(t, "test", m.Version)
	assert.Positive(t, m.Runtime.Goroutines)
	assert.Equal(t, limiterMemory, m.RateLimit.Backend)
	assert.Equal(t, 1, m.RateLimit.TrackedKeys)
	assert.Equal(t, 1, m.Database.OpenConnections)
	assert.False(t, m.Pipeline.BusConnected)
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		env := newTestEnv(t, func(d *Deps) {
			d.Checks = map[string]HealthChecker{"redis": stubCheck{}}
		})

		rec := env.do(t, request{method: http.MethodGet, path: "/api/v1/health"})
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		decodeBody(t, rec, &body)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, map[string]string{"database": "up", "redis": "up"}, body.Checks)
	})

	t.Run("optional dependency down", func(t *testing.T) {
		env := newTestEnv(t, func(d *Deps) {
			d.Checks = map[string]HealthChecker{"mqtt": stubCheck{err: errors.New("broker gone")}}
		})

		rec := env.do(t, request{method: http.MethodGet, path: "/api/v1/health"})
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		decodeBody(t, rec, &body)
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "down", body.Checks["mqtt"])
	})

	t.Run("database down", func(t *testing.T) {
		env := newTestEnv(t, func(d *Deps) {
			d.DB = failingDB{}
		})

		rec := env.do(t, request{method: http.MethodGet, path: "/api/v1/health"})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

type failingDB struct{}

func (failingDB) HealthCheck(context.Context) error { return errors.New("disk I/O error") }
func (failingDB) Stats() sql.DBStats                { return sql.DBStats{} }

func TestClose_AuditsRequestsServedAfterSignal(t *testing.T) {
	signalCtx, cancel := context.WithCancel(context.Background())
	env := newTestEnvWithContext(t, signalCtx)
	admin := env.admin(t)

	// The signal arrives while requests are still being drained.
	cancel()
	post := env.createBlog(t, admin.token, "Served during shutdown", blog.StatusPublished)

	require.NoError(t, env.srv.Close())

	var n int
	require.NoError(t, env.db.QueryRowContext(t.Context(),
		"SELECT COUNT(*) FROM audit_logs WHERE entity_type = 'blog' AND action = 'create' AND entity_id = ?", post.ID,
	).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestTelemetry_RecordsAndFlushesOnClose(t *testing.T) {
	tel := &fakeTelemetry{}
	env := newTestEnv(t, func(d *Deps) { d.Telemetry = tel })
	admin := env.admin(t)

	missing := env.doJSON(t, http.MethodGet, "/api/v1/blogs/no-such-post", admin.token, nil)
	require.Equal(t, http.StatusNotFound, missing.Code)

	require.NoError(t, env.srv.Close())

	routes, authEvents, flushes, flushed := tel.snapshot()
	assert.Contains(t, routes, "GET /api/v1/blogs/{slug} 404")
	assert.Contains(t, authEvents, "register:success")
	assert.Equal(t, 1, flushes)
	assert.Equal(t, len(routes)+len(authEvents), flushed)
}
