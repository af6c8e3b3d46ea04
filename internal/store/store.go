// Package store opens the SQLite-backed persistence layer shared by
// every other component and applies the embedded schema.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/vmunix/felscan/internal/migrations"
)

// Open creates the database directory if needed, opens the SQLite
// file, applies the embedded schema, and returns the shared *sql.DB.
// Every component (capability store, pending downloads, event log)
// shares this single handle rather than opening its own connection.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}
