package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/inkwell-core/internal/audit"
	"github.com/nerrad567/inkwell-core/internal/blog"
)

type likeChange struct {
	BlogID     string `json:"blogId"`
	UserID     string `json:"userId"`
	Liked      bool   `json:"liked"`
	LikesCount int    `json:"likesCount"`
}

// handleLikeBlog records the caller's like on a post.
func (s *Server) handleLikeBlog(w http.ResponseWriter, r *http.Request) {
	s.changeLike(w, r, true)
}

// handleUnlikeBlog removes the caller's like from a post.
func (s *Server) handleUnlikeBlog(w http.ResponseWriter, r *http.Request) {
	s.changeLike(w, r, false)
}

func (s *Server) changeLike(w http.ResponseWriter, r *http.Request, like bool) {
	blogID := chi.URLParam(r, "blogId")
	userID := subjectFromContext(r.Context())

	var (
		count  int
		err    error
		action = audit.ActionLike
	)
	if like {
		count, err = s.likes.Like(r.Context(), blogID, userID)
	} else {
		action = audit.ActionUnlike
		count, err = s.likes.Unlike(r.Context(), blogID, userID)
	}

	switch {
	case errors.Is(err, blog.ErrBlogNotFound):
		writeError(w, errNotFound(msgBlogNotFound))
		return
	case errors.Is(err, blog.ErrAlreadyLiked):
		writeError(w, errBadRequest("You have already liked this blog."))
		return
	case errors.Is(err, blog.ErrNotLiked):
		writeError(w, errBadRequest("You have not liked this blog."))
		return
	case err != nil:
		s.serverError(w, r, action+" blog", err)
		return
	}

	s.emit(r, event{action: action, entity: audit.EntityBlog, entityID: blogID, userID: userID,
		details: map[string]any{"likesCount": count},
		channel: ChannelLikeChanged,
		data:    likeChange{BlogID: blogID, UserID: userID, Liked: like, LikesCount: count}})

	writeSuccess(w, http.StatusOK, "", map[string]int{"likesCount": count})
}
