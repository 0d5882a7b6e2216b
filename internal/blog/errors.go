package blog

import "errors"

// Domain errors for the blog package.
//
//	if errors.Is(err, blog.ErrBlogNotFound) {
//	    // 404
//	}
var (
	// ErrBlogNotFound is returned when a blog ID or slug does not exist.
	ErrBlogNotFound = errors.New("blog: not found")

	// ErrSlugExists is returned when a generated slug collides with an existing one.
	ErrSlugExists = errors.New("blog: slug already exists")

	// ErrInvalidTitle is returned when a title is empty or too long.
	ErrInvalidTitle = errors.New("blog: invalid title")

	// ErrInvalidContent is returned when post content is empty.
	ErrInvalidContent = errors.New("blog: invalid content")

	// ErrInvalidStatus is returned for a status other than draft or published.
	ErrInvalidStatus = errors.New("blog: invalid status")

	// ErrCommentNotFound is returned when a comment ID does not exist.
	ErrCommentNotFound = errors.New("blog: comment not found")

	// ErrInvalidComment is returned when comment content is empty or too long.
	ErrInvalidComment = errors.New("blog: invalid comment")

	// ErrNotCommentOwner is returned when a user deletes someone else's comment.
	ErrNotCommentOwner = errors.New("blog: not the comment owner")

	// ErrAlreadyLiked is returned when a user likes the same post twice.
	ErrAlreadyLiked = errors.New("blog: already liked")

	// ErrNotLiked is returned when a user removes a like they never gave.
	ErrNotLiked = errors.New("blog: not liked")
)
