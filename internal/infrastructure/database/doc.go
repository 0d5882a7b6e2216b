// Package database provides SQLite connectivity for Inkwell Core.
//
// This package manages:
//   - Database connection with WAL mode and enforced foreign keys
//   - Embedded, versioned schema migrations
//   - Connection lifecycle and health checks
//
// All queries use parameterised statements. The database file is created
// with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql. The schema
// only moves forward; .down.sql files are ignored.
package database
