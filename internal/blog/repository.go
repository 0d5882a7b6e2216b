package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/nerrad567/inkwell-core/internal/infrastructure/database"
)

// Page size bounds shared by every paginated listing.
const (
	DefaultLimit = 20
	MaxLimit     = 50

	slugAttempts = 3
)

// Repository defines persistence operations for posts.
type Repository interface {
	Create(ctx context.Context, b *Blog) error
	Update(ctx context.Context, b *Blog) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Blog, error)
	GetBySlug(ctx context.Context, slug string) (*Blog, error)
	IncrementViews(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) (*Page, error)

	// BannerKeysByAuthor returns the object keys of every banner owned by
	// authorID, so the objects can be removed before the rows cascade away.
	BannerKeysByAuthor(ctx context.Context, authorID string) ([]string, error)

	// PurgeUser removes a user's posts, comments and likes and corrects the
	// counters of other users' posts they had commented on or liked.
	PurgeUser(ctx context.Context, userID string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new SQLite-backed post repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

const blogSelect = `SELECT b.id, b.title, b.slug, b.content,
	b.banner_public_id, b.banner_url, b.banner_width, b.banner_height,
	b.author_id, b.views_count, b.likes_count, b.comments_count,
	b.status, b.published_at, b.created_at, b.updated_at,
	u.username, u.email, u.role, u.first_name, u.last_name
	FROM blogs b JOIN users u ON u.id = b.author_id`

// Create inserts a post. The ID and slug are generated when empty; a slug
// collision is retried with a fresh suffix.
func (r *SQLiteRepository) Create(ctx context.Context, b *Blog) error {
	if b.ID == "" {
		b.ID = "blg-" + uuid.NewString()
	}
	if b.Status == "" {
		b.Status = StatusDraft
	}

	now := r.now().UTC().Truncate(time.Second)
	b.CreatedAt, b.UpdatedAt = now, now
	if b.Status == StatusPublished && b.PublishedAt == nil {
		b.PublishedAt = &now
	}

	generated := b.Slug == ""
	for attempt := 0; ; attempt++ {
		if generated {
			slug, err := NewSlug(b.Title)
			if err != nil {
				return err
			}
			b.Slug = slug
		}

		err := r.insert(ctx, b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrSlugExists) || !generated || attempt+1 >= slugAttempts {
			return err
		}
	}
}

func (r *SQLiteRepository) insert(ctx context.Context, b *Blog) error {
	const query = `INSERT INTO blogs (id, title, slug, content,
		banner_public_id, banner_url, banner_width, banner_height,
		author_id, status, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.Title, b.Slug, b.Content,
		b.Banner.PublicID, b.Banner.URL, b.Banner.Width, b.Banner.Height,
		b.AuthorID, string(b.Status), formatTimePtr(b.PublishedAt),
		b.CreatedAt.Format(time.RFC3339), b.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err, "blogs.slug") {
			return fmt.Errorf("%w: %s", ErrSlugExists, b.Slug)
		}
		return fmt.Errorf("inserting blog %s: %w", b.ID, err)
	}
	return nil
}

// Update writes title, content, banner and status. The slug is fixed at
// creation so links stay stable. PublishedAt is stamped the first time a
// post is published.
func (r *SQLiteRepository) Update(ctx context.Context, b *Blog) error {
	now := r.now().UTC().Truncate(time.Second)
	b.UpdatedAt = now
	if b.Status == StatusPublished && b.PublishedAt == nil {
		b.PublishedAt = &now
	}

	const query = `UPDATE blogs SET title = ?, content = ?,
		banner_public_id = ?, banner_url = ?, banner_width = ?, banner_height = ?,
		status = ?, published_at = ?, updated_at = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		b.Title, b.Content,
		b.Banner.PublicID, b.Banner.URL, b.Banner.Width, b.Banner.Height,
		string(b.Status), formatTimePtr(b.PublishedAt), now.Format(time.RFC3339),
		b.ID)
	if err != nil {
		return fmt.Errorf("updating blog %s: %w", b.ID, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// Delete removes a post. Its comments and likes cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM blogs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting blog %s: %w", id, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// GetByID retrieves a post with its author.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Blog, error) {
	return scanBlog(r.db.QueryRowContext(ctx, blogSelect+" WHERE b.id = ?", id))
}

// GetBySlug retrieves a post with its author.
func (r *SQLiteRepository) GetBySlug(ctx context.Context, slug string) (*Blog, error) {
	return scanBlog(r.db.QueryRowContext(ctx, blogSelect+" WHERE b.slug = ?", slug))
}

// IncrementViews adds one to the view counter.
func (r *SQLiteRepository) IncrementViews(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE blogs SET views_count = views_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("incrementing views for %s: %w", id, err)
	}
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// List returns a page of posts, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter ListFilter) (*Page, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.AuthorID != "" {
		conditions = append(conditions, "b.author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.PublishedOnly {
		conditions = append(conditions, "b.status = ?")
		args = append(args, string(StatusPublished))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM blogs b" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting blogs: %w", err)
	}

	query := blogSelect + where + " ORDER BY b.created_at DESC, b.rowid DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying blogs: %w", err)
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating blogs: %w", err)
	}

	return &Page{Limit: filter.Limit, Offset: filter.Offset, Total: total, Blogs: blogs}, nil
}

// BannerKeysByAuthor lists the banner object keys of authorID's posts.
func (r *SQLiteRepository) BannerKeysByAuthor(ctx context.Context, authorID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT banner_public_id FROM blogs WHERE author_id = ? AND banner_public_id != ''", authorID)
	if err != nil {
		return nil, fmt.Errorf("listing banners for %s: %w", authorID, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning banner key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// PurgeUser runs in one transaction. Counters are corrected before the
// user's rows are deleted; afterwards the foreign key cascade on users has
// nothing left to miscount.
func (r *SQLiteRepository) PurgeUser(ctx context.Context, userID string) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		statements := []struct {
			op    string
			query string
			args  []any
		}{
			{"correcting comment counts", `UPDATE blogs SET comments_count = MAX(0, comments_count -
				(SELECT COUNT(*) FROM comments c WHERE c.blog_id = blogs.id AND c.user_id = ?))
				WHERE id IN (SELECT blog_id FROM comments WHERE user_id = ?)`, []any{userID, userID}},
			{"correcting like counts", `UPDATE blogs SET likes_count = MAX(0, likes_count -
				(SELECT COUNT(*) FROM likes l WHERE l.blog_id = blogs.id AND l.user_id = ?))
				WHERE id IN (SELECT blog_id FROM likes WHERE user_id = ?)`, []any{userID, userID}},
			{"deleting comments", "DELETE FROM comments WHERE user_id = ?", []any{userID}},
			{"deleting likes", "DELETE FROM likes WHERE user_id = ?", []any{userID}},
			{"deleting blogs", "DELETE FROM blogs WHERE author_id = ?", []any{userID}},
		}
		for _, s := range statements {
			if _, err := tx.ExecContext(ctx, s.query, s.args...); err != nil {
				return fmt.Errorf("%s for %s: %w", s.op, userID, err)
			}
		}
		return nil
	})
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBlog(s scanner) (*Blog, error) {
	var b Blog
	var a Author
	var status, createdAt, updatedAt string
	var publishedAt sql.NullString

	err := s.Scan(&b.ID, &b.Title, &b.Slug, &b.Content,
		&b.Banner.PublicID, &b.Banner.URL, &b.Banner.Width, &b.Banner.Height,
		&b.AuthorID, &b.ViewsCount, &b.LikesCount, &b.CommentsCount,
		&status, &publishedAt, &createdAt, &updatedAt,
		&a.Username, &a.Email, &a.Role, &a.FirstName, &a.LastName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("scanning blog: %w", err)
	}

	b.Status = Status(status)
	a.ID = b.AuthorID
	b.Author = &a
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	if publishedAt.Valid {
		t := parseTime(publishedAt.String)
		b.PublishedAt = &t
	}
	return &b, nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s) //nolint:errcheck // format is controlled
	return t
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// isUniqueViolation reports whether err is a SQLite UNIQUE failure naming column.
func isUniqueViolation(err error, column string) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) || se.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	return column == "" || strings.Contains(se.Error(), column)
}
