// Package database provides the SQLite store for the session audit service.
//
// It manages:
//   - The connection, with foreign keys on and optional WAL mode
//   - Schema migrations read from an explicit fs.FS
//   - Lifecycle and health checks
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files live at the root of the supplied filesystem and are named
// YYYYMMDD_HHMMSS_description.up.sql with a matching .down.sql. They are
// applied in version order, one transaction each.
//
// All queries use parameterised statements. The database file is chmod 0600.
package database
