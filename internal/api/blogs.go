package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/inkwell-core/internal/audit"
	"github.com/nerrad567/inkwell-core/internal/auth"
	"github.com/nerrad567/inkwell-core/internal/blog"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/objectstore"
)

const (
	bannerField = "banner_image"

	// multipartMemory is how much of a form is held in memory before
	// spilling to temp files.
	multipartMemory = 4 << 20
)

// handleCreateBlog creates a post from a multipart form with a required banner.
func (s *Server) handleCreateBlog(w http.ResponseWriter, r *http.Request) {
	if apiErr := parseForm(r); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	title := r.FormValue("title")
	content := blog.SanitizeHTML(r.FormValue("content"))
	status, statusErr := blog.ParseStatus(r.FormValue("status"))

	f := fieldErrors{}
	if err := blog.ValidateTitle(title); err != nil {
		f.add("title", "Title is required and must be less than 180 characters.")
	}
	if err := blog.ValidateContent(content); err != nil {
		f.add("content", "Content is required.")
	}
	if statusErr != nil {
		f.add("status", "Status must be draft or published.")
	}
	if apiErr := f.err(); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	data, info, apiErr := readBanner(r, true)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	banner, ok := s.uploadBanner(w, r, data, info)
	if !ok {
		return
	}

	post := &blog.Blog{
		Title:    title,
		Content:  content,
		Status:   status,
		Banner:   banner,
		AuthorID: subjectFromContext(r.Context()),
	}
	if err := s.blogs.Create(r.Context(), post); err != nil {
		s.deleteBanner(r.Context(), banner.PublicID)
		s.serverError(w, r, "create blog", err)
		return
	}

	created, err := s.blogs.GetByID(r.Context(), post.ID)
	if err != nil {
		s.serverError(w, r, "create blog", err)
		return
	}

	s.logger.Info("new blog created", "blog_id", created.ID, "slug", created.Slug, "user_id", post.AuthorID)
	s.emit(r, event{action: audit.ActionCreate, entity: audit.EntityBlog, entityID: created.ID, userID: post.AuthorID,
		details: map[string]any{"slug": created.Slug, "status": created.Status},
		channel: ChannelBlogCreated, data: created})

	writeSuccess(w, http.StatusCreated, "Blog created.", map[string]any{"blog": created})
}

// handleUpdateBlog changes any of title, content, status and banner. The
// slug stays as created.
func (s *Server) handleUpdateBlog(w http.ResponseWriter, r *http.Request) {
	if apiErr := parseForm(r); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	post, err := s.blogs.GetByID(r.Context(), chi.URLParam(r, "blogId"))
	if err != nil {
		s.writeBlogError(w, r, "update blog", err)
		return
	}

	f := fieldErrors{}
	if _, ok := r.MultipartForm.Value["title"]; ok {
		post.Title = r.FormValue("title")
		if err := blog.ValidateTitle(post.Title); err != nil {
			f.add("title", "Title is required and must be less than 180 characters.")
		}
	}
	if _, ok := r.MultipartForm.Value["content"]; ok {
		post.Content = blog.SanitizeHTML(r.FormValue("content"))
		if err := blog.ValidateContent(post.Content); err != nil {
			f.add("content", "Content is required.")
		}
	}
	if _, ok := r.MultipartForm.Value["status"]; ok {
		status, err := blog.ParseStatus(r.FormValue("status"))
		if err != nil {
			f.add("status", "Status must be draft or published.")
		}
		post.Status = status
	}
	if apiErr := f.err(); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	data, info, apiErr := readBanner(r, false)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	oldKey := ""
	if data != nil {
		banner, ok := s.uploadBanner(w, r, data, info)
		if !ok {
			return
		}
		oldKey = post.Banner.PublicID
		post.Banner = banner
	}

	if err := s.blogs.Update(r.Context(), post); err != nil {
		if data != nil {
			s.deleteBanner(r.Context(), post.Banner.PublicID)
		}
		s.writeBlogError(w, r, "update blog", err)
		return
	}
	if oldKey != "" {
		s.deleteBanner(r.Context(), oldKey)
	}

	updated, err := s.blogs.GetByID(r.Context(), post.ID)
	if err != nil {
		s.writeBlogError(w, r, "update blog", err)
		return
	}

	userID := subjectFromContext(r.Context())
	s.logger.Info("blog updated", "blog_id", updated.ID, "user_id", userID)
	s.emit(r, event{action: audit.ActionUpdate, entity: audit.EntityBlog, entityID: updated.ID, userID: userID,
		details: map[string]any{"bannerReplaced": oldKey != ""},
		channel: ChannelBlogUpdated, data: updated})

	writeSuccess(w, http.StatusOK, "Blog updated.", map[string]any{"blog": updated})
}

// handleDeleteBlog removes a post and its banner.
func (s *Server) handleDeleteBlog(w http.ResponseWriter, r *http.Request) {
	post, err := s.blogs.GetByID(r.Context(), chi.URLParam(r, "blogId"))
	if err != nil {
		s.writeBlogError(w, r, "delete blog", err)
		return
	}

	if err := s.blogs.Delete(r.Context(), post.ID); err != nil {
		s.writeBlogError(w, r, "delete blog", err)
		return
	}
	s.deleteBanner(r.Context(), post.Banner.PublicID)

	userID := subjectFromContext(r.Context())
	s.logger.Info("blog deleted", "blog_id", post.ID, "user_id", userID)
	s.emit(r, event{action: audit.ActionDelete, entity: audit.EntityBlog, entityID: post.ID, userID: userID,
		details: map[string]any{"slug": post.Slug},
		channel: ChannelBlogDeleted, data: map[string]string{"id": post.ID, "slug": post.Slug}})

	w.WriteHeader(http.StatusNoContent)
}

// handleListBlogs returns a page of posts. Callers without the draft
// permission only see published posts.
func (s *Server) handleListBlogs(w http.ResponseWriter, r *http.Request) {
	s.listBlogs(w, r, "")
}

// handleListBlogsByUser is handleListBlogs for one author.
func (s *Server) handleListBlogsByUser(w http.ResponseWriter, r *http.Request) {
	s.listBlogs(w, r, chi.URLParam(r, "userId"))
}

func (s *Server) listBlogs(w http.ResponseWriter, r *http.Request, authorID string) {
	limit, offset, apiErr := parsePage(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	page, err := s.blogs.List(r.Context(), blog.ListFilter{
		AuthorID:      authorID,
		PublishedOnly: !auth.HasPermission(roleFromContext(r.Context()), auth.PermBlogReadDraft),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		s.serverError(w, r, "list blogs", err)
		return
	}
	if page.Blogs == nil {
		page.Blogs = []blog.Blog{}
	}

	writeSuccess(w, http.StatusOK, "", page)
}

// handleGetBlogBySlug returns one post and counts the view. Drafts are
// only visible to callers with the draft permission.
func (s *Server) handleGetBlogBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := s.blogs.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeBlogError(w, r, "get blog", err)
		return
	}

	role := roleFromContext(r.Context())
	if post.Status == blog.StatusDraft && !auth.HasPermission(role, auth.PermBlogReadDraft) {
		s.logger.Warn("user tried to access a draft blog",
			"user_id", subjectFromContext(r.Context()),
			"role", role,
			"blog_id", post.ID,
		)
		writeError(w, errAuthorization(msgForbidden))
		return
	}

	if err := s.blogs.IncrementViews(r.Context(), post.ID); err != nil {
		s.writeBlogError(w, r, "get blog", err)
		return
	}
	post.ViewsCount++

	writeSuccess(w, http.StatusOK, "", map[string]any{"blog": post})
}

func (s *Server) writeBlogError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, blog.ErrBlogNotFound) {
		writeError(w, errNotFound(msgBlogNotFound))
		return
	}
	s.serverError(w, r, op, err)
}

// parseForm parses a multipart body, mapping an oversized body to 413.
func parseForm(r *http.Request) *APIError {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errPayloadTooLarge("Request body is too large.")
		}
		return errValidation("Request must be multipart/form-data.", nil)
	}
	return nil
}

// readBanner reads and probes the banner_image file. A nil slice with a nil
// error means no file was sent and none was required.
func readBanner(r *http.Request, required bool) ([]byte, objectstore.ImageInfo, *APIError) {
	file, _, err := r.FormFile(bannerField)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, objectstore.ImageInfo{}, errValidation("Blog banner image is required.",
				fieldErrors{bannerField: "Blog banner image is required."})
		}
		return nil, objectstore.ImageInfo{}, nil
	}
	if err != nil {
		return nil, objectstore.ImageInfo{}, errValidation("Invalid banner image.", nil)
	}
	defer file.Close()

	data, err := readLimited(file, objectstore.MaxImageBytes)
	if err != nil {
		return nil, objectstore.ImageInfo{}, errValidation("Invalid banner image.", nil)
	}

	info, err := objectstore.ProbeImage(data)
	switch {
	case errors.Is(err, objectstore.ErrImageTooLarge):
		return nil, objectstore.ImageInfo{}, errPayloadTooLarge("File size must be less than 2MB.")
	case err != nil:
		return nil, objectstore.ImageInfo{}, errValidation("Banner must be a JPEG, PNG or WebP image.",
			fieldErrors{bannerField: "Unsupported image type."})
	}
	return data, info, nil
}

// readLimited reads at most limit+1 bytes so an oversized file is detected
// without buffering all of it.
func readLimited(file multipart.File, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(file, limit+1))
}

// uploadBanner stores the image and returns the banner record.
func (s *Server) uploadBanner(w http.ResponseWriter, r *http.Request, data []byte, info objectstore.ImageInfo) (blog.Banner, bool) {
	if s.banners == nil {
		s.serverError(w, r, "upload banner", objectstore.ErrNotConfigured)
		return blog.Banner{}, false
	}

	obj, err := s.banners.Put(r.Context(), data, info)
	if err != nil {
		s.serverError(w, r, "upload banner", err)
		return blog.Banner{}, false
	}

	s.logger.Debug("blog banner uploaded", "key", obj.Key, "size", info.Size)
	return blog.Banner{
		PublicID: obj.Key,
		URL:      obj.URL,
		Width:    info.Width,
		Height:   info.Height,
	}, true
}

// deleteBanner removes a stored banner. Failures leave an orphaned object
// and are only logged.
func (s *Server) deleteBanner(ctx context.Context, key string) {
	if s.banners == nil || key == "" {
		return
	}
	if err := s.banners.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete banner object", "key", key, "error", err)
	}
}
