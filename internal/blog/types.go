package blog

import "time"

// Status is the publication state of a post.
type Status string

// Post statuses.
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Banner is the cover image of a post. PublicID is the object store key and
// never leaves the server.
type Banner struct {
	PublicID string `json:"-"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Author is the public view of the user who wrote a post or comment.
type Author struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Blog is a post.
type Blog struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Banner        Banner     `json:"banner"`
	AuthorID      string     `json:"-"`
	Author        *Author    `json:"author,omitempty"`
	ViewsCount    int        `json:"viewsCount"`
	LikesCount    int        `json:"likesCount"`
	CommentsCount int        `json:"commentsCount"`
	Status        Status     `json:"status"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Comment is a reader's comment on a post.
type Comment struct {
	ID        string    `json:"id"`
	BlogID    string    `json:"blogId"`
	UserID    string    `json:"userId"`
	Author    *Author   `json:"author,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListFilter selects a page of posts.
type ListFilter struct {
	// AuthorID restricts the page to one author when set.
	AuthorID string

	// PublishedOnly hides drafts. Set for every caller without
	// the draft-read permission.
	PublishedOnly bool

	Limit  int
	Offset int
}

// Page is one page of posts plus the total matching the filter.
type Page struct {
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Total  int    `json:"total"`
	Blogs  []Blog `json:"blogs"`
}
