package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/inkwell-core/internal/audit"
	"github.com/nerrad567/inkwell-core/internal/blog"
)

const (
	msgCommentNotFound = "Comment not found."
	msgNotCommentOwner = "Access denied. You are not authorized to delete this comment."
)

type commentRequest struct {
	Content string `json:"content"`
}

// handleCreateComment adds a comment to a post.
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeError(w, apiErr)
		return
	}
	req.Content = blog.SanitizeHTML(req.Content)
	if err := blog.ValidateComment(req.Content); err != nil {
		writeError(w, errValidation(msgValidationFailed,
			fieldErrors{"content": "Content is required and must be less than 1000 characters."}))
		return
	}

	userID := subjectFromContext(r.Context())
	c := &blog.Comment{
		BlogID:  chi.URLParam(r, "blogId"),
		UserID:  userID,
		Content: req.Content,
	}
	if err := s.comments.Add(r.Context(), c); err != nil {
		s.writeBlogError(w, r, "create comment", err)
		return
	}

	created, err := s.comments.Get(r.Context(), c.ID)
	if err != nil {
		s.serverError(w, r, "create comment", err)
		return
	}

	s.logger.Info("comment created", "comment_id", created.ID, "blog_id", created.BlogID, "user_id", userID)
	s.emit(r, event{action: audit.ActionCreate, entity: audit.EntityComment, entityID: created.ID, userID: userID,
		details: map[string]any{"blogId": created.BlogID},
		channel: ChannelCommentCreated, data: created})

	writeSuccess(w, http.StatusCreated, "Comment created.", map[string]any{"comment": created})
}

// handleListComments returns every comment on a post, newest first.
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.comments.ListByBlog(r.Context(), chi.URLParam(r, "blogId"))
	if err != nil {
		s.writeBlogError(w, r, "list comments", err)
		return
	}
	if comments == nil {
		comments = []blog.Comment{}
	}

	writeSuccess(w, http.StatusOK, "", map[string]any{"comments": comments})
}

// handleDeleteComment removes a comment. Only its author may delete it.
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID := chi.URLParam(r, "commentId")
	userID := subjectFromContext(r.Context())

	blogID, err := s.comments.DeleteOwned(r.Context(), commentID, userID)
	switch {
	case errors.Is(err, blog.ErrCommentNotFound):
		writeError(w, errNotFound(msgCommentNotFound))
		return
	case errors.Is(err, blog.ErrNotCommentOwner):
		s.logger.Warn("user tried to delete a comment they do not own",
			"user_id", userID,
			"comment_id", commentID,
		)
		writeError(w, errAuthorization(msgNotCommentOwner))
		return
	case err != nil:
		s.serverError(w, r, "delete comment", err)
		return
	}

	s.logger.Info("comment deleted", "comment_id", commentID, "blog_id", blogID, "user_id", userID)
	s.emit(r, event{action: audit.ActionDelete, entity: audit.EntityComment, entityID: commentID, userID: userID,
		details: map[string]any{"blogId": blogID},
		channel: ChannelCommentDeleted, data: map[string]string{"id": commentID, "blogId": blogID}})

	w.WriteHeader(http.StatusNoContent)
}
