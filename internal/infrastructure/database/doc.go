// Package database opens the SQLite file behind the publish journal and
// applies its schema migrations.
//
// Migrations are embedded SQL files named
// YYYYMMDD_HHMMSS_description.up.sql (with an optional .down.sql). The
// migrations package registers them through MigrationsFS at init time, so
// a binary carries its own schema.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Security Considerations:
//   - All queries use parameterised statements
//   - The database file is restricted to 0600
package database
