package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nixlim/evdash/internal/config"
	"github.com/nixlim/evdash/internal/dataset"
)

func openTestJournal(t *testing.T, retentionDays int) (*SQLiteJournal, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	j, err := NewSQLiteJournal(dbPath, retentionDays, nil)
	if err != nil {
		t.Fatalf("NewSQLiteJournal: %v", err)
	}
	return j, dbPath
}

func TestSQLiteJournal_RecordAndRecent(t *testing.T) {
	j, _ := openTestJournal(t, 30)
	defer func() { _ = j.Close() }()

	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		j.Record(LoadEntry{
			ID:        fmt.Sprintf("load-%d", i),
			Source:    "data.json",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Duration:  15 * time.Millisecond,
			Records:   10 + i,
			Status:    StatusOK,
		})
	}
	j.Record(LoadEntry{
		ID:        "load-failed",
		Source:    "https://example.com/x.json",
		StartedAt: base.Add(10 * time.Minute),
		Status:    StatusFailed,
		Stage:     "status",
		Error:     "unexpected status 503",
	})

	got, err := j.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "load-failed" || !got[0].Failed() || got[0].Stage != "status" {
		t.Errorf("newest entry = %+v", got[0])
	}
	if got[1].ID != "load-2" || got[1].Records != 12 || got[1].Duration != 15*time.Millisecond {
		t.Errorf("second entry = %+v", got[1])
	}
	if !got[1].StartedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("StartedAt = %v, want %v", got[1].StartedAt, base.Add(2*time.Minute))
	}

	all, err := j.Recent(0)
	if err != nil {
		t.Fatalf("Recent(0): %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Recent(0) should return everything, got %d", len(all))
	}
}

func TestSQLiteJournal_SurvivesReopen(t *testing.T) {
	j, dbPath := openTestJournal(t, 30)
	j.Record(LoadEntry{ID: "persisted", Source: "a", StartedAt: time.Now(), Status: StatusOK})
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	j2, err := NewSQLiteJournal(dbPath, 30, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = j2.Close() }()

	got, err := j2.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].ID != "persisted" {
		t.Errorf("entries after reopen = %+v", got)
	}
}

func TestSQLiteJournal_Prune(t *testing.T) {
	j, _ := openTestJournal(t, 7)
	defer func() { _ = j.Close() }()

	now := time.Now()
	j.Record(LoadEntry{ID: "old", Source: "a", StartedAt: now.AddDate(0, 0, -8), Status: StatusOK})
	j.Record(LoadEntry{ID: "fresh", Source: "a", StartedAt: now.AddDate(0, 0, -1), Status: StatusOK})
	if !j.Sync(time.Second) {
		t.Fatal("Sync timed out")
	}

	n, err := j.Prune(now)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d rows, want 1", n)
	}

	got, _ := j.Recent(0)
	if len(got) != 1 || got[0].ID != "fresh" {
		t.Errorf("remaining = %+v", got)
	}
}

func TestSQLiteJournal_RecordAfterCloseIgnored(t *testing.T) {
	j, _ := openTestJournal(t, 30)
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	j.Record(LoadEntry{ID: "late"})
	if err := j.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestMemoryJournal(t *testing.T) {
	m := NewMemoryJournal()
	m.cap = 3
	for i := 0; i < 5; i++ {
		m.Record(LoadEntry{ID: fmt.Sprintf("e-%d", i)})
	}

	got, err := m.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want cap 3", len(got))
	}
	if got[0].ID != "e-4" || got[2].ID != "e-2" {
		t.Errorf("order = %v, %v; want newest first", got[0].ID, got[2].ID)
	}

	got, _ = m.Recent(1)
	if len(got) != 1 || got[0].ID != "e-4" {
		t.Errorf("Recent(1) = %+v", got)
	}
}

func TestNewJournal_Fallback(t *testing.T) {
	j, persistent := NewJournal(config.StorageConfig{DBPath: filepath.Join(t.TempDir(), "j.db"), RetentionDays: 30}, nil)
	defer func() { _ = j.Close() }()
	if !persistent {
		t.Error("expected persistent journal for writable path")
	}
	if _, ok := j.(*SQLiteJournal); !ok {
		t.Errorf("expected *SQLiteJournal, got %T", j)
	}

	j2, persistent := NewJournal(config.StorageConfig{DBPath: "/nonexistent/deeply/nested/unwritable/j.db", RetentionDays: 30}, nil)
	if persistent {
		t.Error("expected fallback for unwritable path")
	}
	if _, ok := j2.(*MemoryJournal); !ok {
		t.Errorf("expected *MemoryJournal fallback, got %T", j2)
	}

	j3, persistent := NewJournal(config.StorageConfig{}, nil)
	if persistent {
		t.Error("empty db_path should select the in-memory journal")
	}
	if _, ok := j3.(*MemoryJournal); !ok {
		t.Errorf("expected *MemoryJournal, got %T", j3)
	}
}

func TestReporter_JournalsLoads(t *testing.T) {
	m := NewMemoryJournal()
	r := NewReporter(m)

	loaded := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.Report(dataset.Dataset{Source: "a.json", LoadedAt: loaded, Duration: time.Second, Records: nil})
	r.Report(dataset.Dataset{
		Source:  "b.json",
		Failure: &dataset.LoadFailure{Source: "b.json", Stage: dataset.StageDecode, Err: errors.New("bad json")},
	})

	got, _ := m.Recent(0)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	failed, ok := got[0], got[1]
	if failed.Status != StatusFailed || failed.Stage != "decode" || failed.Error != "bad json" {
		t.Errorf("failed entry = %+v", failed)
	}
	if ok.Status != StatusOK || !ok.StartedAt.Equal(loaded) || ok.Duration != time.Second {
		t.Errorf("ok entry = %+v", ok)
	}
	if failed.ID == "" || failed.ID == ok.ID {
		t.Errorf("entries need distinct ids: %q %q", failed.ID, ok.ID)
	}
}
