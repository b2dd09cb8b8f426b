package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSchema_CreateFresh(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	var version int
	if err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		t.Fatalf("failed to read schema_version: %v", err)
	}
	if version != 1 {
		t.Errorf("schema version: want 1, got %d", version)
	}

	for _, tableName := range []string{"schema_version", "loads"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", tableName).Scan(&name)
		if err == sql.ErrNoRows {
			t.Errorf("table %q not found", tableName)
		} else if err != nil {
			t.Fatalf("error checking table %q: %v", tableName, err)
		}
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("failed to read journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode: want wal, got %s", journalMode)
	}
}

func TestSchema_NoMigrationAtCurrentVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db1, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("first OpenDB failed: %v", err)
	}
	_, err = db1.Exec(`INSERT INTO loads (id, source, started_at, duration_ms, record_count, status)
		VALUES ('load-001', 'x.json', 0, 1, 2, 'ok')`)
	if err != nil {
		t.Fatalf("failed to insert test row: %v", err)
	}
	_ = db1.Close()

	db2, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("second OpenDB failed: %v", err)
	}
	defer func() { _ = db2.Close() }()

	var rows int
	if err := db2.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows); err != nil {
		t.Fatalf("counting schema_version rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("schema_version rows: want 1, got %d", rows)
	}

	var id string
	err = db2.QueryRow("SELECT id FROM loads WHERE id = ?", "load-001").Scan(&id)
	if err == sql.ErrNoRows {
		t.Error("test row was lost; migration re-ran destructively")
	} else if err != nil {
		t.Fatalf("error reading test row: %v", err)
	}
}

func TestSchema_CreateParentDirs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir1", "subdir2", "test.db")

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB failed with nested path: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestSchema_ForwardVersionRejected(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	futureDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create future DB: %v", err)
	}
	if _, err := futureDB.Exec("CREATE TABLE schema_version (version INTEGER)"); err != nil {
		t.Fatalf("failed to create schema_version table: %v", err)
	}
	if _, err := futureDB.Exec("INSERT INTO schema_version (version) VALUES (999)"); err != nil {
		t.Fatalf("failed to insert future version: %v", err)
	}
	_ = futureDB.Close()

	_, err = OpenDB(dbPath)
	if err == nil {
		t.Fatal("OpenDB should have failed for forward schema version, but succeeded")
	}

	errMsg := err.Error()
	for _, phrase := range []string{"999", "newer", "upgrade evdash", dbPath} {
		if !strings.Contains(errMsg, phrase) {
			t.Errorf("error message missing %q: %s", phrase, errMsg)
		}
	}
}

func TestSchema_UnversionedJournalIsMigrated(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	// A crash between creating schema_version and recording a version
	// leaves an empty table behind.
	partial, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := partial.Exec("CREATE TABLE schema_version (version INTEGER NOT NULL)"); err != nil {
		t.Fatal(err)
	}
	_ = partial.Close()

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	var rows, version int
	if err := db.QueryRow("SELECT COUNT(*), MAX(version) FROM schema_version").Scan(&rows, &version); err != nil {
		t.Fatal(err)
	}
	if rows != 1 || version != currentSchemaVersion {
		t.Errorf("schema_version rows=%d version=%d, want 1 row at %d", rows, version, currentSchemaVersion)
	}
	if _, err := db.Exec("INSERT INTO loads (id, source, started_at, duration_ms, record_count, status) VALUES ('a', 's', 0, 0, 0, 'ok')"); err != nil {
		t.Errorf("loads table should exist after migration: %v", err)
	}
}
