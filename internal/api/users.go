package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/inkwell-core/internal/audit"
	"github.com/nerrad567/inkwell-core/internal/auth"
)

// updateUserRequest carries the profile fields a user may change.
// Absent fields are left untouched.
type updateUserRequest struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

type userListResponse struct {
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
	Total  int         `json:"total"`
	Users  []auth.User `json:"users"`
}

// handleGetCurrentUser returns the caller's account.
func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), subjectFromContext(r.Context()))
	if err != nil {
		s.writeUserError(w, r, "get current user", err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"user": user})
}

// handleUpdateCurrentUser changes the caller's profile.
func (s *Server) handleUpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	f := fieldErrors{}
	if req.Username != nil {
		validateUsername(f, *req.Username)
	}
	if req.Email != nil {
		validateEmail(f, *req.Email)
	}
	if req.Password != nil {
		validatePassword(f, *req.Password)
	}
	if req.FirstName != nil {
		validateName(f, "firstName", *req.FirstName)
	}
	if req.LastName != nil {
		validateName(f, "lastName", *req.LastName)
	}
	if apiErr := f.err(); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	userID := subjectFromContext(r.Context())
	user, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		s.writeUserError(w, r, "update current user", err)
		return
	}

	var changed []string
	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
		changed = append(changed, "username")
	}
	if req.Email != nil {
		user.Email = auth.NormaliseEmail(*req.Email)
		changed = append(changed, "email")
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
		changed = append(changed, "firstName")
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
		changed = append(changed, "lastName")
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.serverError(w, r, "hash password", err)
			return
		}
		user.PasswordHash = hash
		changed = append(changed, "password")
	}

	if err := s.users.Update(r.Context(), user); err != nil {
		s.writeUserError(w, r, "update current user", err)
		return
	}

	s.logger.Info("user updated", "user_id", userID, "fields", changed)
	s.emit(r, event{action: audit.ActionUpdate, entity: audit.EntityUser, entityID: userID, userID: userID,
		details: map[string]any{"fields": changed}})

	writeSuccess(w, http.StatusOK, "User updated successfully.", map[string]any{"user": user})
}

// handleDeleteCurrentUser deletes the caller's account and everything they own.
func (s *Server) handleDeleteCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := subjectFromContext(r.Context())
	if err := s.purgeUser(r.Context(), userID); err != nil {
		s.writeUserError(w, r, "delete current user", err)
		return
	}

	s.logger.Info("user account deleted", "user_id", userID)
	s.emit(r, event{action: audit.ActionDelete, entity: audit.EntityUser, entityID: userID, userID: userID})

	s.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleListUsers returns a page of accounts.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, apiErr := parsePage(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	users, total, err := s.users.List(r.Context(), limit, offset)
	if err != nil {
		s.serverError(w, r, "list users", err)
		return
	}
	if users == nil {
		users = []auth.User{}
	}

	writeSuccess(w, http.StatusOK, "", userListResponse{
		Limit:  limit,
		Offset: offset,
		Total:  total,
		Users:  users,
	})
}

// handleGetUser returns one account.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		s.writeUserError(w, r, "get user", err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"user": user})
}

// handleDeleteUser deletes any account and everything it owns.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userId")
	adminID := subjectFromContext(r.Context())

	if err := s.purgeUser(r.Context(), targetID); err != nil {
		s.writeUserError(w, r, "delete user", err)
		return
	}

	s.logger.Info("user account deleted by admin", "user_id", targetID, "deleted_by", adminID)
	s.emit(r, event{action: audit.ActionDelete, entity: audit.EntityUser, entityID: targetID, userID: adminID})

	w.WriteHeader(http.StatusNoContent)
}

// purgeUser removes an account with its sessions, posts, comments and likes,
// then deletes the banner objects of those posts. Counters on other posts
// are corrected for the removed comments and likes.
func (s *Server) purgeUser(ctx context.Context, userID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	keys, err := s.blogs.BannerKeysByAuthor(ctx, userID)
	if err != nil {
		return fmt.Errorf("listing banners: %w", err)
	}
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("revoking sessions: %w", err)
	}
	if err := s.blogs.PurgeUser(ctx, userID); err != nil {
		return fmt.Errorf("purging content: %w", err)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	for _, key := range keys {
		s.deleteBanner(ctx, key)
	}
	return nil
}

func (s *Server) writeUserError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		writeError(w, errNotFound(msgUserNotFound))
	case errors.Is(err, auth.ErrEmailExists):
		writeError(w, errConflict("Email is already in use."))
	case errors.Is(err, auth.ErrUsernameExists):
		writeError(w, errConflict("Username is already in use."))
	default:
		s.serverError(w, r, op, err)
	}
}
