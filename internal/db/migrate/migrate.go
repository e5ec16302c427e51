// Package migrate applies the embedded SQLite schema migrations in
// lexicographic file order (0001_name.sql, 0002_other.sql, ...), recording
// each applied file in a schema_migrations table so reruns are no-ops.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

//go:embed sql/*.sql
var sqlFS embed.FS

const tableName = "schema_migrations"

// Run applies every embedded migration that has not been applied yet.
func Run(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			filename   TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)
	`); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := appliedFiles(db)
	if err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}

	entries, err := fs.ReadDir(sqlFS, "sql")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") && !applied[e.Name()] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := fs.ReadFile(sqlFS, "sql/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := apply(db, name, string(body)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		slog.Info("migration applied", "file", name)
	}

	return nil
}

func appliedFiles(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT filename FROM " + tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out[f] = true
	}
	return out, rows.Err()
}

func apply(db *sql.DB, name, body string) error {
	if _, err := db.Exec(body); err != nil {
		return err
	}
	_, err := db.Exec("INSERT INTO "+tableName+" (filename) VALUES (?)", name)
	return err
}
