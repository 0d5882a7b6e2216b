package auth

import (
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/nerrad567/inkwell-core/internal/infrastructure/database"
	_ "github.com/nerrad567/inkwell-core/migrations" // registers the schema
)

const (
	testAccessSecret  = "access-secret-for-tests-32-bytes!!"
	testRefreshSecret = "refresh-secret-for-tests-32-bytes!"
	testPassword      = "Correct-Horse-9"
)

// testDB opens an in-memory SQLite database with the full schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(t.Context(), database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(t.Context()); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	return db.DB
}

func testCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(CodecConfig{
		AccessSecret:  []byte(testAccessSecret),
		RefreshSecret: []byte(testRefreshSecret),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	return c
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// seedTestUser inserts a user with testPassword and returns it.
func seedTestUser(t *testing.T, db *sql.DB, email string, role Role) *User {
	t.Helper()

	hash, err := HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	repo := NewUserRepository(db)
	name, err := GenerateUsername(t.Context(), repo)
	if err != nil {
		t.Fatalf("generating username: %v", err)
	}
	user := &User{
		Username:     name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := repo.Create(t.Context(), user); err != nil {
		t.Fatalf("creating test user %s: %v", email, err)
	}
	return user
}

func timeInOneHour() time.Time {
	return time.Now().Add(time.Hour)
}
