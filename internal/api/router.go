package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/inkwell-core/internal/auth"
)

// healthCheckTimeout bounds each dependency probe in /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.rateLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleRoot)
		r.Get("/health", s.handleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh-token", s.handleRefreshToken)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticated())
				r.Post("/logout", s.handleLogout)
				r.Post("/ws-ticket", s.handleWSTicket)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(s.guard(auth.PermProfileManage))
				r.Get("/current", s.handleGetCurrentUser)
				r.Put("/current", s.handleUpdateCurrentUser)
				r.Delete("/current", s.handleDeleteCurrentUser)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.guard(auth.PermUserManageAll))
				r.Get("/", s.handleListUsers)
				r.Get("/{userId}", s.handleGetUser)
				r.Delete("/{userId}", s.handleDeleteUser)
			})
		})

		r.Route("/blogs", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(s.guard(auth.PermBlogRead))
				r.Get("/", s.handleListBlogs)
				r.Get("/user/{userId}", s.handleListBlogsByUser)
				r.Get("/{slug}", s.handleGetBlogBySlug)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.guard(auth.PermBlogManage))
				r.Post("/", s.handleCreateBlog)
				r.Put("/{blogId}", s.handleUpdateBlog)
				r.Delete("/{blogId}", s.handleDeleteBlog)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(s.guard(auth.PermCommentWrite))
			r.Post("/blog/{blogId}", s.handleCreateComment)
			r.Get("/blog/{blogId}", s.handleListComments)
			r.Delete("/{commentId}", s.handleDeleteComment)
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(s.guard(auth.PermLikeWrite))
			r.Post("/blog/{blogId}", s.handleLikeBlog)
			r.Delete("/blog/{blogId}", s.handleUnlikeBlog)
		})

		r.With(s.guard(auth.PermAuditRead)).Get("/audit-logs", s.handleListAuditLogs)
		r.With(s.guard(auth.PermSystemAdmin)).Get("/metrics", s.handleMetrics)

		// Auth via ticket, validated in the handler.
		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "API is live",
		"status":    "ok",
		"version":   s.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleHealth probes every registered dependency. Only the database is
// critical; anything else failing reports "degraded" with a 200.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.checks)+1)
	status, code := "ok", http.StatusOK

	probe := func(name string, c HealthChecker) error {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		err := c.HealthCheck(ctx)
		if err != nil {
			checks[name] = "down"
			s.logger.Warn("health check failed", "component", name, "error", err)
			return err
		}
		checks[name] = "up"
		return nil
	}

	if s.db != nil {
		if err := probe("database", s.db); err != nil {
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := probe(name, s.checks[name]); err != nil && code == http.StatusOK {
			status = "degraded"
		}
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"uptime":  int64(time.Since(s.startTime).Seconds()),
		"checks":  checks,
	})
}
