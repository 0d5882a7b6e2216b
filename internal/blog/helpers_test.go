package blog

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/inkwell-core/internal/infrastructure/database"
	_ "github.com/nerrad567/inkwell-core/migrations" // registers the schema
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(t.Context(), database.Config{Path: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	require.NoError(t, db.Migrate(t.Context()))
	return db.DB
}

// seedUser inserts a bare user row and returns its ID.
func seedUser(t *testing.T, db *sql.DB, role string) string {
	t.Helper()

	id := "usr-" + uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(t.Context(),
		`INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, 'x', ?, ?, ?)`,
		id, "user-"+id[4:], id+"@example.com", role, now, now)
	require.NoError(t, err)
	return id
}

func seedBlog(t *testing.T, repo *SQLiteRepository, authorID, title string, status Status) *Blog {
	t.Helper()

	b := &Blog{
		Title:    title,
		Content:  "<p>" + title + "</p>",
		AuthorID: authorID,
		Status:   status,
		Banner: Banner{
			PublicID: "banners/" + uuid.NewString() + ".png",
			URL:      "https://cdn.example.com/banner.png",
			Width:    1200,
			Height:   630,
		},
	}
	require.NoError(t, repo.Create(t.Context(), b))
	return b
}
