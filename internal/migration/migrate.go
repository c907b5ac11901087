// Package migration applies embedded schema migrations at startup.
package migration

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// RunMigrations applies every embedded *.up.sql file not yet recorded in
// schema_migrations, in lexical order. Each migration runs in its own
// transaction. Migration names come from the embedded filesystem, so they
// are inlined rather than bound; this keeps the SQL portable across the
// postgres and sqlite placeholder styles.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migration database handle is required")
	}

	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS schema_migrations (
		   name TEXT PRIMARY KEY,
		   applied_at TIMESTAMP NOT NULL
		 )`,
	); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	names, err := migrationNames()
	if err != nil {
		return err
	}

	for _, name := range names {
		var count int
		if err := db.QueryRow(fmt.Sprintf(
			`SELECT COUNT(1) FROM schema_migrations WHERE name = '%s'`, name,
		)).Scan(&count); err != nil {
			return fmt.Errorf("check %s: %w", name, err)
		}
		if count > 0 {
			continue
		}
		if err := applyOne(db, name); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, migrationDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func applyOne(db *sql.DB, name string) error {
	contents, err := fs.ReadFile(migrationFiles, migrationDir+"/"+name)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(string(contents)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf(
		`INSERT INTO schema_migrations (name, applied_at) VALUES ('%s', CURRENT_TIMESTAMP)`, name,
	)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
