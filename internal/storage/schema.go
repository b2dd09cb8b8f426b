package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// migration upgrades the journal by one schema version. Its statements run
// in one transaction together with the version bump.
type migration struct {
	name  string
	stmts []string
}

// journalMigrations[i] takes a journal from version i to version i+1.
var journalMigrations = [...]migration{
	{
		name: "create loads",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`,
			// started_at is unix milliseconds so retention pruning is an integer compare.
			`CREATE TABLE IF NOT EXISTS loads (
				id TEXT PRIMARY KEY,
				source TEXT NOT NULL,
				started_at INTEGER NOT NULL,
				duration_ms INTEGER NOT NULL,
				record_count INTEGER NOT NULL,
				status TEXT NOT NULL,
				stage TEXT,
				error TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_loads_started ON loads(started_at)`,
		},
	},
}

const currentSchemaVersion = len(journalMigrations)

// OpenDB opens the load journal at dbPath, creating the file and its parent
// directories on first use, and brings its schema up to date. A journal
// written by a newer evdash is refused rather than downgraded.
func OpenDB(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := migrateSchema(db, dbPath); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSchema(db *sql.DB, dbPath string) error {
	version, err := schemaVersion(db)
	if err != nil {
		return err
	}

	if version > currentSchemaVersion {
		return fmt.Errorf(
			"journal schema version %d is newer than this evdash version supports (max: %d); upgrade evdash or delete %s to start fresh",
			version, currentSchemaVersion, dbPath,
		)
	}

	for v := version; v < currentSchemaVersion; v++ {
		if err := applyMigration(db, v, journalMigrations[v]); err != nil {
			return fmt.Errorf("migrating journal v%d→v%d (%s): %w", v, v+1, journalMigrations[v].name, err)
		}
	}
	return nil
}

// schemaVersion reports 0 for a journal with no version recorded yet.
func schemaVersion(db *sql.DB) (int, error) {
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("checking schema_version table: %w", err)
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

func applyMigration(db *sql.DB, from int, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("clearing schema version: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", from+1); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return tx.Commit()
}
