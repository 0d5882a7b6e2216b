package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerrad567/inkwell-core/internal/audit"
	"github.com/nerrad567/inkwell-core/internal/auth"
	"github.com/nerrad567/inkwell-core/internal/blog"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/config"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/logging"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/objectstore"
	"github.com/nerrad567/inkwell-core/internal/ratelimit"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// BannerStore keeps banner images. *objectstore.Store implements it.
type BannerStore interface {
	Put(ctx context.Context, data []byte, info objectstore.ImageInfo) (objectstore.Object, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher forwards domain events to a message bus. *mqtt.Client
// implements it.
type EventPublisher interface {
	PublishJSON(topic string, v any) error
}

// Telemetry records request and auth measurements. *influxdb.Client
// implements it.
type Telemetry interface {
	WriteRequest(method, route string, status int, duration time.Duration)
	WriteAuthEvent(event, outcome string)
	Flush()
}

// HealthChecker is any dependency that can report its health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DBStats is the database view used by health and metrics.
// *database.DB implements it.
type DBStats interface {
	HealthChecker
	Stats() sql.DBStats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	DevMode  bool
	Version  string
	Logger   *logging.Logger

	Codec    *auth.Codec
	Sessions *auth.SessionService
	Users    auth.UserRepository
	Blogs    blog.Repository
	Comments blog.CommentRepository
	Likes    blog.LikeRepository
	Audit    audit.Repository

	// Optional.
	DB        DBStats
	Banners   BannerStore
	Events    EventPublisher
	Telemetry Telemetry
	Redis     redis.UniversalClient
	Checks    map[string]HealthChecker
}

// Server is the HTTP API server for Inkwell Core.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	devMode   bool
	version   string
	logger    *logging.Logger
	codec     *auth.Codec
	sessions  *auth.SessionService
	users     auth.UserRepository
	roles     auth.RoleReader
	blogs     blog.Repository
	comments  blog.CommentRepository
	likes     blog.LikeRepository
	auditRepo audit.Repository

	db        DBStats
	banners   BannerStore
	events    EventPublisher
	telemetry Telemetry
	checks    map[string]HealthChecker

	recorder      *audit.Recorder
	hub           *Hub
	tickets       *ticketStore
	limiter       ratelimit.Limiter
	memLimiter    *ratelimit.MemoryLimiter
	limiterKind   string
	eventCh       chan busEvent
	droppedEvents uint64
	eventMu       sync.Mutex

	server    *http.Server
	router    http.Handler
	startTime time.Time
	cancel    context.CancelFunc // cancels background goroutines on Close()
	workers   sync.WaitGroup
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, errors.New("logger is required")
	case deps.Codec == nil || deps.Sessions == nil:
		return nil, errors.New("token codec and session service are required")
	case deps.Users == nil:
		return nil, errors.New("user repository is required")
	case deps.Blogs == nil || deps.Comments == nil || deps.Likes == nil:
		return nil, errors.New("blog repositories are required")
	case deps.Audit == nil:
		return nil, errors.New("audit repository is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		devMode:   deps.DevMode,
		version:   deps.Version,
		logger:    deps.Logger,
		codec:     deps.Codec,
		sessions:  deps.Sessions,
		users:     deps.Users,
		roles:     deps.Users,
		blogs:     deps.Blogs,
		comments:  deps.Comments,
		likes:     deps.Likes,
		auditRepo: deps.Audit,
		db:        deps.DB,
		banners:   deps.Banners,
		events:    deps.Events,
		telemetry: deps.Telemetry,
		checks:    deps.Checks,
		recorder:  audit.NewRecorder(deps.Audit, audit.DefaultBuffer, deps.Logger.Logger),
		hub:       NewHub(deps.WS, deps.Logger),
		tickets:   newTicketStore(),
		eventCh:   make(chan busEvent, eventBufferSize),
		startTime: time.Now(),
	}
	s.buildLimiter(deps.Redis)
	s.router = s.buildRouter()

	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// startWorkers launches the background goroutines the server owns: the
// audit drain, the WebSocket hub, the event forwarder, ticket cleanup and
// the in-process limiter sweep. They outlive ctx's cancellation and stop
// only in stopWorkers, so requests still draining during shutdown are
// audited.
func (s *Server) startWorkers(ctx context.Context) {
	var wctx context.Context
	wctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	run := func(fn func(context.Context)) {
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			fn(wctx)
		}()
	}

	run(s.recorder.Run)
	run(s.hub.Run)
	run(s.forwardEvents)
	run(s.tickets.cleanLoop)
	if s.memLimiter != nil {
		run(s.memLimiter.Run)
	}
}

// stopWorkers cancels the background goroutines and waits for them. Audit
// entries still queued are written before it returns.
func (s *Server) stopWorkers() {
	if s.cancel != nil {
		s.cancel()
	}
	s.workers.Wait()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	s.startWorkers(ctx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then stops
// the background workers, flushing queued audit entries and buffered
// telemetry.
func (s *Server) Close() error {
	var err error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		s.logger.Info("API server shutting down")
		err = s.server.Shutdown(ctx)
	}

	s.stopWorkers()
	if s.telemetry != nil {
		s.telemetry.Flush()
	}

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return errors.New("api server not started")
	}
	return nil
}
