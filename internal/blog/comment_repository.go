package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/inkwell-core/internal/infrastructure/database"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Add(ctx context.Context, c *Comment) error
	Get(ctx context.Context, id string) (*Comment, error)
	ListByBlog(ctx context.Context, blogID string) ([]Comment, error)

	// DeleteOwned removes a comment if requesterID wrote it and returns the
	// post it belonged to.
	DeleteOwned(ctx context.Context, id, requesterID string) (blogID string, err error)
}

// SQLiteCommentRepository implements CommentRepository using SQLite.
type SQLiteCommentRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteCommentRepository creates a new SQLite-backed comment repository.
func NewSQLiteCommentRepository(db *sql.DB) *SQLiteCommentRepository {
	return &SQLiteCommentRepository{db: db, now: time.Now}
}

const commentSelect = `SELECT c.id, c.blog_id, c.user_id, c.content, c.created_at,
	u.username, u.email, u.role, u.first_name, u.last_name
	FROM comments c JOIN users u ON u.id = c.user_id`

// Add inserts a comment and bumps the post's comment counter.
func (r *SQLiteCommentRepository) Add(ctx context.Context, c *Comment) error {
	if c.ID == "" {
		c.ID = "cmt-" + uuid.NewString()
	}
	c.CreatedAt = r.now().UTC().Truncate(time.Second)

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE blogs SET comments_count = comments_count + 1 WHERE id = ?", c.BlogID)
		if err != nil {
			return fmt.Errorf("incrementing comment count: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 { //nolint:errcheck // always succeeds on SQLite
			return ErrBlogNotFound
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO comments (id, blog_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)",
			c.ID, c.BlogID, c.UserID, c.Content, c.CreatedAt.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("inserting comment %s: %w", c.ID, err)
		}
		return nil
	})
}

// Get retrieves a comment with its author.
func (r *SQLiteCommentRepository) Get(ctx context.Context, id string) (*Comment, error) {
	return scanComment(r.db.QueryRowContext(ctx, commentSelect+" WHERE c.id = ?", id))
}

// ListByBlog returns a post's comments, newest first. An unknown post is
// ErrBlogNotFound rather than an empty list.
func (r *SQLiteCommentRepository) ListByBlog(ctx context.Context, blogID string) ([]Comment, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blogs WHERE id = ?", blogID).Scan(&n); err != nil {
		return nil, fmt.Errorf("checking blog %s: %w", blogID, err)
	}
	if n == 0 {
		return nil, ErrBlogNotFound
	}

	rows, err := r.db.QueryContext(ctx,
		commentSelect+" WHERE c.blog_id = ? ORDER BY c.created_at DESC, c.rowid DESC", blogID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}
	return comments, nil
}

// DeleteOwned checks ownership, deletes the comment and decrements the
// counter in one transaction.
func (r *SQLiteCommentRepository) DeleteOwned(ctx context.Context, id, requesterID string) (string, error) {
	var blogID string
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var ownerID string
		err := tx.QueryRowContext(ctx, "SELECT blog_id, user_id FROM comments WHERE id = ?", id).Scan(&blogID, &ownerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCommentNotFound
			}
			return fmt.Errorf("reading comment %s: %w", id, err)
		}
		if ownerID != requesterID {
			return ErrNotCommentOwner
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting comment %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE blogs SET comments_count = MAX(0, comments_count - 1) WHERE id = ?", blogID); err != nil {
			return fmt.Errorf("decrementing comment count: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return blogID, nil
}

func scanComment(s scanner) (*Comment, error) {
	var c Comment
	var a Author
	var createdAt string

	err := s.Scan(&c.ID, &c.BlogID, &c.UserID, &c.Content, &createdAt,
		&a.Username, &a.Email, &a.Role, &a.FirstName, &a.LastName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("scanning comment: %w", err)
	}

	a.ID = c.UserID
	c.Author = &a
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}
