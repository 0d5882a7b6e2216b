package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/inkwell-core/internal/audit"
	"github.com/nerrad567/inkwell-core/internal/auth"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/logging"
)

const (
	refreshCookieName = "refreshToken"
	refreshCookiePath = "/api/v1/auth"
)

// Auth event outcomes written to telemetry.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type registerRequest struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionUser is the account summary returned on register and login.
type sessionUser struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     auth.Role `json:"role"`
}

type sessionResponse struct {
	User        sessionUser `json:"user"`
	AccessToken string      `json:"accessToken"`
}

// handleRegister creates an account and opens its first session.
// An already registered email gets the same response as a failed login.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	f := fieldErrors{}
	validateEmail(f, req.Email)
	validatePassword(f, req.Password)
	if req.Role != "" && !auth.IsValidUserRole(req.Role) {
		f.add("role", "Role must be admin, buyer or seller.")
	}
	if apiErr := f.err(); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	session, err := s.sessions.Register(r.Context(), auth.Registration{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		s.authEvent("register", outcomeFailure)
		switch {
		case errors.Is(err, auth.ErrAdminNotWhitelisted):
			writeError(w, errAuthorization("You cannot register as an admin."))
		case auth.IsCredentialError(err):
			writeError(w, errValidation(msgBadCredentials, nil))
		default:
			s.serverError(w, r, "register", err)
		}
		return
	}

	s.authEvent("register", outcomeSuccess)
	s.emit(r, event{action: audit.ActionRegister, entity: audit.EntityUser, entityID: session.User.ID, userID: session.User.ID,
		details: map[string]any{"role": session.User.Role}})

	s.setRefreshCookie(w, session)
	writeSuccess(w, http.StatusCreated, "New user created.", newSessionResponse(session))
}

// handleLogin verifies credentials and opens a session. Unknown email and
// wrong password produce identical responses.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	f := fieldErrors{}
	if req.Email == "" {
		f.add("email", "Email is required.")
	}
	if req.Password == "" {
		f.add("password", "Password is required.")
	}
	if apiErr := f.err(); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	session, err := s.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.authEvent("login", outcomeFailure)
		if auth.IsCredentialError(err) {
			writeError(w, errValidation(msgBadCredentials, nil))
			return
		}
		s.serverError(w, r, "login", err)
		return
	}

	s.authEvent("login", outcomeSuccess)
	s.emit(r, event{action: audit.ActionLogin, entity: audit.EntitySession, entityID: session.User.ID, userID: session.User.ID})

	s.setRefreshCookie(w, session)
	writeSuccess(w, http.StatusOK, "User logged in successfully.", newSessionResponse(session))
}

// handleRefreshToken exchanges the refresh cookie for a new access token.
// The stored record is checked before the signature. The refresh token
// itself is not rotated. The reply is a bare {"accessToken": ...} object,
// not the success envelope.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, errValidation("Refresh token is required.", fieldErrors{"refreshToken": "Refresh token is required."}))
		return
	}

	access, err := s.sessions.Refresh(r.Context(), cookie.Value)
	if err != nil {
		s.authEvent("refresh", outcomeFailure)
		s.logger.Debug("refresh token rejected", "token", logging.Redact(cookie.Value), "error", err)
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			writeError(w, errAuthentication("Refresh token expired, please login again."))
		case errors.Is(err, auth.ErrTokenRevoked), errors.Is(err, auth.ErrTokenInvalid):
			writeError(w, errAuthentication("Invalid refresh token."))
		default:
			s.serverError(w, r, "refresh token", err)
		}
		return
	}

	s.authEvent("refresh", outcomeSuccess)
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

// handleLogout revokes the refresh cookie's token and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		if err := s.sessions.Logout(r.Context(), cookie.Value); err != nil {
			s.serverError(w, r, "logout", err)
			return
		}
	}

	userID := subjectFromContext(r.Context())
	s.authEvent("logout", outcomeSuccess)
	s.emit(r, event{action: audit.ActionLogout, entity: audit.EntitySession, entityID: userID, userID: userID})
	s.logger.Info("user logged out", "user_id", userID)

	s.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleWSTicket issues a single-use ticket for /ws. The browser WebSocket
// API cannot set headers, and putting the JWT in the URL would leak it to
// logs.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	ticket := s.tickets.issue(subjectFromContext(r.Context()))
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"ticket":    ticket,
		"expiresIn": int(ticketTTL.Seconds()),
	})
}

func newSessionResponse(session *auth.Session) sessionResponse {
	return sessionResponse{
		User: sessionUser{
			Username: session.User.Username,
			Email:    session.User.Email,
			Role:     session.User.Role,
		},
		AccessToken: session.AccessToken,
	}
}

// setRefreshCookie stores the refresh token in an HttpOnly cookie scoped to
// the auth routes. It is Secure everywhere except development.
func (s *Server) setRefreshCookie(w http.ResponseWriter, session *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    session.RefreshToken,
		Path:     refreshCookiePath,
		Expires:  session.RefreshExpiresAt,
		MaxAge:   int(time.Until(session.RefreshExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   !s.devMode,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.devMode,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) authEvent(name, outcome string) {
	if s.telemetry != nil {
		s.telemetry.WriteAuthEvent(name, outcome)
	}
}
