// Package migrations embeds the SQL schema of the publish journal.
//
// Importing it for side effects registers the files with the database
// package, so Migrate works without the files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/temppub/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
