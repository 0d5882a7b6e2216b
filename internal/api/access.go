package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/inkwell-core/internal/auth"
)

const (
	// ctxKeySubject holds the user ID resolved by authenticate.
	ctxKeySubject contextKey = "subject"

	// ctxKeyRole holds the role read by authorize.
	ctxKeyRole contextKey = "role"
)

// authenticate verifies the bearer access token and stores the subject in
// the context. It never touches the database.
func (s *Server) authenticate(r *http.Request) Outcome {
	token, ok := bearerToken(r)
	if !ok {
		return Halt{errAuthentication(msgNoToken)}
	}

	subject, err := s.codec.VerifyAccessToken(token)
	switch {
	case err == nil:
		return Continue{context.WithValue(r.Context(), ctxKeySubject, subject)}
	case errors.Is(err, auth.ErrTokenExpired):
		return Halt{errAuthentication(msgAccessExpired)}
	case errors.Is(err, auth.ErrTokenInvalid):
		return Halt{errAuthentication(msgAccessInvalid)}
	default:
		s.logger.Error("access token verification failed", "op", "authenticate", "error", err)
		return Halt{errServer()}
	}
}

// authorize returns a step admitting only callers whose current role is in
// allowed. The role is read fresh on every request.
func (s *Server) authorize(allowed auth.RoleSet) Step {
	return func(r *http.Request) Outcome {
		subject := subjectFromContext(r.Context())
		if subject == "" {
			return Halt{errAuthentication(msgNoToken)}
		}

		role, err := s.roles.GetRole(r.Context(), subject)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				return Halt{errNotFound(msgUserNotFound)}
			}
			s.logger.Error("role lookup failed", "op", "authorize", "user_id", subject, "error", err)
			return Halt{errServer()}
		}

		if !allowed.Allows(role) {
			s.logger.Warn("user tried to access a resource without permission",
				"user_id", subject,
				"role", role,
				"method", r.Method,
				"path", r.URL.Path,
			)
			return Halt{errAuthorization(msgForbidden)}
		}

		return Continue{context.WithValue(r.Context(), ctxKeyRole, role)}
	}
}

// guard is the pipeline for routes open to callers holding perm.
func (s *Server) guard(perm auth.Permission) func(http.Handler) http.Handler {
	return Pipeline{s.authenticate, s.authorize(auth.RolesWith(perm))}.Middleware()
}

// authenticated is the pipeline for routes that need a valid token but no
// particular role.
func (s *Server) authenticated() func(http.Handler) http.Handler {
	return Pipeline{s.authenticate}.Middleware()
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func subjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeySubject).(string) //nolint:errcheck // zero value when unset
	return s
}

func roleFromContext(ctx context.Context) auth.Role {
	r, _ := ctx.Value(ctxKeyRole).(auth.Role) //nolint:errcheck // zero value when unset
	return r
}
