// Package migrations embeds the SQL schema into the binary and registers
// it with the database package.
package migrations

import (
	"embed"

	"github.com/nerrad567/inkwell-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
