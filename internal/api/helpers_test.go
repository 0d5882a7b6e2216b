package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nerrad567/inkwell-core/internal/audit"
	"github.com/nerrad567/inkwell-core/internal/auth"
	"github.com/nerrad567/inkwell-core/internal/blog"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/config"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/database"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/logging"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/objectstore"
	_ "github.com/nerrad567/inkwell-core/migrations" // registers the schema
)

const (
	testAccessSecret  = "api-access-secret-for-tests-32-bytes"
	testRefreshSecret = "api-refresh-secret-for-tests-32-byte"
	testPassword      = "Str0ngPassword"
	testAdminEmail    = "admin@example.com"
)

// fakeBanners is an in-memory BannerStore.
type fakeBanners struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
	seq     int
}

func newFakeBanners() *fakeBanners {
	return &fakeBanners{objects: make(map[string][]byte)}
}

func (f *fakeBanners) Put(_ context.Context, data []byte, info objectstore.ImageInfo) (objectstore.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return objectstore.Object{}, f.putErr
	}
	f.seq++
	key := "banners/test/" + strings.Repeat("b", f.seq) + info.Ext
	f.objects[key] = data
	return objectstore.Object{Key: key, URL: "https://cdn.example.com/" + key}, nil
}

func (f *fakeBanners) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBanners) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *fakePublisher) PublishJSON(topic string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

// fakeTelemetry records request and auth measurements.
type fakeTelemetry struct {
	mu      sync.Mutex
	routes  []string
	auth    []string
	flushes int
	pending int
	flushed int
}

func (f *fakeTelemetry) WriteRequest(method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = append(f.routes, fmt.Sprintf("%s %s %d", method, route, status))
	f.pending++
}

func (f *fakeTelemetry) WriteAuthEvent(event, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, event+":"+outcome)
	f.pending++
}

func (f *fakeTelemetry) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	f.flushed += f.pending
	f.pending = 0
}

func (f *fakeTelemetry) snapshot() (routes, authEvents []string, flushes, flushed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.routes...), append([]string(nil), f.auth...), f.flushes, f.flushed
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	db      *sql.DB
	users   *auth.SQLiteUserRepository
	tokens  *auth.SQLiteTokenStore
	blogs   *blog.SQLiteRepository
	banners *fakeBanners
	events  *fakePublisher
}

type envOption func(*Deps)

func withRateLimit(perMinute int) envOption {
	return func(d *Deps) {
		d.Security.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: perMinute}
	}
}

func withCORS(origins ...string) envOption {
	return func(d *Deps) {
		d.Config.CORS.AllowedOrigins = origins
	}
}

func withoutBanners() envOption {
	return func(d *Deps) {
		d.Banners = nil
	}
}

// newTestEnv builds a Server over an in-memory database. Background
// workers run for the lifetime of the test.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	return newTestEnvWithContext(t, context.Background(), opts...)
}

// newTestEnvWithContext is newTestEnv with workers started from ctx, the
// way Start receives the process signal context.
func newTestEnvWithContext(t *testing.T, ctx context.Context, opts ...envOption) *testEnv {
	t.Helper()

	db, err := database.Open(t.Context(), database.Config{Path: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	require.NoError(t, db.Migrate(t.Context()))

	codec, err := auth.NewCodec(auth.CodecConfig{
		AccessSecret:  []byte(testAccessSecret),
		RefreshSecret: []byte(testRefreshSecret),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)

	log := logging.NewWithWriter(io.Discard, config.LoggingConfig{Level: "error", Format: "json"}, "test")
	users := auth.NewUserRepository(db.DB)
	tokens := auth.NewTokenStore(db.DB)
	blogs := blog.NewSQLiteRepository(db.DB)
	banners := newFakeBanners()
	events := &fakePublisher{}

	deps := Deps{
		Config:  config.APIConfig{Host: "127.0.0.1"},
		WS:      config.WebSocketConfig{Path: "/ws", MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10},
		DevMode: true,
		Version: "test",
		Logger:  log,

		Codec:    codec,
		Sessions: auth.NewSessionService(codec, tokens, users, []string{testAdminEmail}, log.Logger),
		Users:    users,
		Blogs:    blogs,
		Comments: blog.NewSQLiteCommentRepository(db.DB),
		Likes:    blog.NewSQLiteLikeRepository(db.DB),
		Audit:    audit.NewSQLiteRepository(db.DB),

		DB:      db,
		Banners: banners,
		Events:  events,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv, err := New(deps)
	require.NoError(t, err)
	srv.startWorkers(ctx)
	t.Cleanup(srv.stopWorkers)

	return &testEnv{
		srv:     srv,
		handler: srv.Handler(),
		db:      db.DB,
		users:   users,
		tokens:  tokens,
		blogs:   blogs,
		banners: banners,
		events:  events,
	}
}

// request describes one call against the router.
type request struct {
	method  string
	path    string
	body    io.Reader
	token   string
	cookie  *http.Cookie
	ctype   string
	remote  string
	headers map[string]string
}

func (e *testEnv) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(req.method, req.path, req.body)
	if req.ctype != "" {
		r.Header.Set("Content-Type", req.ctype)
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.cookie != nil {
		r.AddCookie(req.cookie)
	}
	if req.remote != "" {
		r.RemoteAddr = req.remote
	}
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	return e.do(t, request{method: method, path: path, body: reader, token: token, ctype: "application/json"})
}

// account is a registered test user.
type account struct {
	id      string
	email   string
	token   string
	refresh *http.Cookie
}

// register signs up email with role and returns the session.
func (e *testEnv) register(t *testing.T, email string, role auth.Role) account {
	t.Helper()

	rec := e.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    email,
		"password": testPassword,
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Data sessionResponse `json:"data"`
	}
	decodeBody(t, rec, &body)

	user, err := e.users.GetByEmail(t.Context(), email)
	require.NoError(t, err)

	return account{
		id:      user.ID,
		email:   email,
		token:   body.Data.AccessToken,
		refresh: refreshCookie(rec),
	}
}

func (e *testEnv) admin(t *testing.T) account {
	t.Helper()
	return e.register(t, testAdminEmail, auth.RoleAdmin)
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var e APIError
	decodeBody(t, rec, &e)
	return e
}

// decodeData unmarshals the data field of a success envelope into v.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	decodeBody(t, rec, &env)
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// blogForm builds a multipart body. A nil banner omits the file part.
func blogForm(t *testing.T, fields map[string]string, banner []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if banner != nil {
		part, err := mw.CreateFormFile(bannerField, "banner.png")
		require.NoError(t, err)
		_, err = part.Write(banner)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// createBlog posts a blog as the given admin and returns it.
func (e *testEnv) createBlog(t *testing.T, token, title string, status blog.Status) blog.Blog {
	t.Helper()

	body, ctype := blogForm(t, map[string]string{
		"title":   title,
		"content": "<p>" + title + "</p>",
		"status":  string(status),
	}, testPNG(t, 40, 20))

	rec := e.do(t, request{method: http.MethodPost, path: "/api/v1/blogs", body: body, token: token, ctype: ctype})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var data struct {
		Blog blog.Blog `json:"blog"`
	}
	decodeData(t, rec, &data)
	return data.Blog
}
