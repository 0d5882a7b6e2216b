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

// LikeRepository records which users liked which posts.
type LikeRepository interface {
	// Like records the like and returns the post's new like count.
	Like(ctx context.Context, blogID, userID string) (int, error)

	// Unlike removes the like and returns the post's new like count.
	Unlike(ctx context.Context, blogID, userID string) (int, error)

	HasLiked(ctx context.Context, blogID, userID string) (bool, error)
}

// SQLiteLikeRepository implements LikeRepository using SQLite.
type SQLiteLikeRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteLikeRepository creates a new SQLite-backed like repository.
func NewSQLiteLikeRepository(db *sql.DB) *SQLiteLikeRepository {
	return &SQLiteLikeRepository{db: db, now: time.Now}
}

// Like fails with ErrBlogNotFound for an unknown post and ErrAlreadyLiked
// on a repeat. The UNIQUE(blog_id, user_id) constraint settles races.
func (r *SQLiteLikeRepository) Like(ctx context.Context, blogID, userID string) (int, error) {
	var count int
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := requireBlog(ctx, tx, blogID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO likes (id, blog_id, user_id, created_at) VALUES (?, ?, ?, ?)",
			"lik-"+uuid.NewString(), blogID, userID,
			r.now().UTC().Format(time.RFC3339))
		if err != nil {
			if isUniqueViolation(err, "likes.") {
				return ErrAlreadyLiked
			}
			return fmt.Errorf("inserting like: %w", err)
		}

		return tx.QueryRowContext(ctx,
			"UPDATE blogs SET likes_count = likes_count + 1 WHERE id = ? RETURNING likes_count", blogID,
		).Scan(&count)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Unlike fails with ErrBlogNotFound for an unknown post and ErrNotLiked
// when there is nothing to remove.
func (r *SQLiteLikeRepository) Unlike(ctx context.Context, blogID, userID string) (int, error) {
	var count int
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := requireBlog(ctx, tx, blogID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM likes WHERE blog_id = ? AND user_id = ?", blogID, userID)
		if err != nil {
			return fmt.Errorf("deleting like: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 { //nolint:errcheck // always succeeds on SQLite
			return ErrNotLiked
		}

		return tx.QueryRowContext(ctx,
			"UPDATE blogs SET likes_count = MAX(0, likes_count - 1) WHERE id = ? RETURNING likes_count", blogID,
		).Scan(&count)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// HasLiked reports whether userID currently likes blogID.
func (r *SQLiteLikeRepository) HasLiked(ctx context.Context, blogID, userID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM likes WHERE blog_id = ? AND user_id = ?", blogID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking like: %w", err)
	}
	return n > 0, nil
}

// requireBlog confirms the post exists inside tx.
func requireBlog(ctx context.Context, tx *sql.Tx, blogID string) error {
	var id string
	err := tx.QueryRowContext(ctx, "SELECT id FROM blogs WHERE id = ?", blogID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBlogNotFound
	}
	if err != nil {
		return fmt.Errorf("reading blog %s: %w", blogID, err)
	}
	return nil
}
